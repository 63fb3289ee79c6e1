package pricing

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hjemme/hjemme-core/internal/readings"
	"github.com/hjemme/hjemme-core/internal/rules"
)

// refreshTimeout bounds one refresh cycle, fetch included.
const refreshTimeout = 30 * time.Second

// Logger defines the logging interface used by the pricing package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sink receives refreshed prices as sensor readings.
type Sink interface {
	HandleReading(ctx context.Context, sensorID int64, raw string)
}

// Metrics is the instrumentation hook for the refresher.
type Metrics interface {
	PriceRefresh(success bool)
}

// noopMetrics discards all instrumentation.
type noopMetrics struct{}

func (noopMetrics) PriceRefresh(bool) {}

// Refresher periodically fetches the current electricity price and feeds
// it into the evaluation pipeline as a reading of the price pseudo-sensor.
//
// A failed fetch is logged and skipped; the previous price stays current
// until the next successful refresh.
type Refresher struct {
	provider Provider
	store    readings.Store
	sink     Sink
	cron     *cron.Cron
	spec     string
	logger   Logger
	metrics  Metrics
}

// NewRefresher creates a price refresher with the given cron spec
// (standard five-field syntax, e.g. "0 * * * *" for hourly).
func NewRefresher(provider Provider, store readings.Store, sink Sink, spec string) *Refresher {
	return &Refresher{
		provider: provider,
		store:    store,
		sink:     sink,
		cron:     cron.New(),
		spec:     spec,
		logger:   noopLogger{},
		metrics:  noopMetrics{},
	}
}

// SetLogger sets the logger for the refresher.
func (r *Refresher) SetLogger(logger Logger) {
	r.logger = logger
}

// SetMetrics sets the instrumentation hook for the refresher.
func (r *Refresher) SetMetrics(metrics Metrics) {
	r.metrics = metrics
}

// Start schedules the refresh job and runs one refresh immediately so a
// price is available before the first tick.
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.spec, r.refresh); err != nil {
		return err
	}
	go r.refresh()
	r.cron.Start()
	r.logger.Info("price refresher started", "cron", r.spec)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("price refresher stopped")
}

// refresh fetches the current price and records it as a reading of the
// price pseudo-sensor, fanning it out to rule evaluation.
func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	price, err := r.provider.CurrentPrice(ctx)
	if err != nil {
		r.metrics.PriceRefresh(false)
		r.logger.Warn("price refresh failed", "error", err)
		return
	}
	r.metrics.PriceRefresh(true)

	raw := strconv.FormatFloat(price, 'f', -1, 64)
	if err := r.store.Record(ctx, readings.Reading{
		SensorID:   rules.PriceSensorID,
		Raw:        raw,
		ReceivedAt: time.Now(),
	}); err != nil {
		r.logger.Error("recording price reading", "error", err)
		return
	}

	r.logger.Debug("electricity price refreshed", "price", price)
	if r.sink != nil {
		r.sink.HandleReading(ctx, rules.PriceSensorID, raw)
	}
}
