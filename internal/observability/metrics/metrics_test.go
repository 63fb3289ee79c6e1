package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReadingProcessed(3)
	m.ReadingProcessed(3)
	m.ReadingProcessed(-1)
	m.RuleEvaluated(true)
	m.RuleEvaluated(false)
	m.RuleDispatched("ok")
	m.DiscoveryEdgeRecorded()
	m.PriceRefresh(true)
	m.PriceRefresh(false)

	if got := testutil.ToFloat64(m.readingsProcessed.WithLabelValues("3")); got != 2 {
		t.Errorf("readings_processed{sensor_id=3} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.readingsProcessed.WithLabelValues("-1")); got != 1 {
		t.Errorf("readings_processed{sensor_id=-1} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rulesEvaluated.WithLabelValues("true")); got != 1 {
		t.Errorf("rules_evaluated{fired=true} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rulesDispatched.WithLabelValues("ok")); got != 1 {
		t.Errorf("rules_dispatched{status=ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.discoveryEdges); got != 1 {
		t.Errorf("discovery_edges = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.priceRefreshes.WithLabelValues("error")); got != 1 {
		t.Errorf("price_refreshes{result=error} = %v, want 1", got)
	}
}

func TestMetrics_RegistersWithoutCollision(t *testing.T) {
	// Two instances on separate registries must not panic.
	_ = New(prometheus.NewRegistry())
	_ = New(prometheus.NewRegistry())
}
