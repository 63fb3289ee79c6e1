// Package ingest connects the MQTT broker to the core pipeline.
//
// It subscribes to the gateway-facing topics and routes each message to
// the right component: sensor readings feed the reading store and the
// rule engine, discovery announcements become discovery edges, and
// externally reported switch state is appended to the state history.
//
// Messages from unknown devices are dropped with a log line rather than
// failing the subscription; gateways may announce devices before they
// are registered.
package ingest
