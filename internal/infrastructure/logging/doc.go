// Package logging provides structured logging for hjemme-core on top of
// log/slog.
//
// Every logger carries the service and version fields, filters by the
// configured level, and writes JSON for production or text for
// development. Configuration comes from the logging section of
// config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Typical use:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("mqtt connected", "broker", cfg.MQTT.Broker.Host)
//	logger.Error("rule dispatch failed", "rule_id", id, "error", err)
//
// Never log secrets, tokens, or passwords. Truncate identifying values
// where a prefix is enough:
//
//	logger.Info("provisioning token issued", "token_prefix", tok[:8]+"...")
package logging
