// Package config loads and validates the hjemme-core configuration.
//
// Configuration is read from a YAML file, then overridden by environment
// variables, then validated. Missing optional fields get defaults.
//
// Sensitive values (broker passwords, JWT secrets, InfluxDB tokens)
// belong in environment variables, and the config file itself should be
// mode 0600.
//
// The access section carries the capability table consumed by the access
// package: one admin role per resource kind plus the global admin role.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Site.Name)
package config
