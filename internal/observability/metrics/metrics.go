// Package metrics exposes Prometheus instrumentation for the evaluation
// pipeline and broker traffic.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricPrefix = "hjemme_"

// Metrics holds the collectors for the daemon. It implements the rules
// engine's instrumentation hook.
type Metrics struct {
	readingsProcessed *prometheus.CounterVec
	rulesEvaluated    *prometheus.CounterVec
	rulesDispatched   *prometheus.CounterVec
	discoveryEdges    prometheus.Counter
	priceRefreshes    *prometheus.CounterVec
}

// New registers the collectors with the given registerer and returns the
// metrics handle. Pass prometheus.DefaultRegisterer in the daemon and a
// fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		readingsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_processed_total",
				Help: "Sensor readings processed by the evaluation pipeline",
			},
			[]string{"sensor_id"},
		),
		rulesEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rules_evaluated_total",
				Help: "Rule evaluations by outcome",
			},
			[]string{"fired"},
		),
		rulesDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rules_dispatched_total",
				Help: "Rule dispatches by status",
			},
			[]string{"status"},
		),
		discoveryEdges: factory.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "discovery_edges_total",
				Help: "Discovery edges recorded",
			},
		),
		priceRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "price_refreshes_total",
				Help: "Electricity price refresh attempts by result",
			},
			[]string{"result"},
		),
	}
}

// ReadingProcessed counts one reading arrival for a sensor.
func (m *Metrics) ReadingProcessed(sensorID int64) {
	m.readingsProcessed.WithLabelValues(strconv.FormatInt(sensorID, 10)).Inc()
}

// RuleEvaluated counts one rule evaluation by outcome.
func (m *Metrics) RuleEvaluated(fired bool) {
	m.rulesEvaluated.WithLabelValues(strconv.FormatBool(fired)).Inc()
}

// RuleDispatched counts one dispatch attempt by status.
func (m *Metrics) RuleDispatched(status string) {
	m.rulesDispatched.WithLabelValues(status).Inc()
}

// DiscoveryEdgeRecorded counts one new discovery edge.
func (m *Metrics) DiscoveryEdgeRecorded() {
	m.discoveryEdges.Inc()
}

// PriceRefresh counts one price refresh attempt.
func (m *Metrics) PriceRefresh(success bool) {
	result := "error"
	if success {
		result = "success"
	}
	m.priceRefreshes.WithLabelValues(result).Inc()
}
