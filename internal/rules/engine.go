package rules

import (
	"context"
	"sync"
	"time"

	"github.com/hjemme/hjemme-core/internal/infrastructure/mqtt"
)

// defaultEvaluationTimeout bounds one rule's store lookups during
// evaluation. A timeout fails that rule's evaluation, not the batch.
const defaultEvaluationTimeout = 5 * time.Second

// ReadingSource provides the latest raw reading for a sensor.
type ReadingSource interface {
	// LatestRaw returns the latest raw value for the sensor and whether
	// one is known.
	LatestRaw(ctx context.Context, sensorID int64) (string, bool, error)
}

// Metrics is the instrumentation hook for the evaluation pipeline.
type Metrics interface {
	ReadingProcessed(sensorID int64)
	RuleEvaluated(fired bool)
	RuleDispatched(status string)
}

// noopMetrics discards all instrumentation.
type noopMetrics struct{}

func (noopMetrics) ReadingProcessed(int64) {}
func (noopMetrics) RuleEvaluated(bool)     {}
func (noopMetrics) RuleDispatched(string)  {}

// Engine is the evaluation pipeline. Each sensor reading arrival fans out
// to the enabled rules referencing that sensor; every rule evaluates
// independently and concurrently, and triggered rules dispatch.
//
// Evaluation is fail-closed end to end: a rule whose readings cannot be
// fetched or parsed simply does not fire, and dispatch failures never
// propagate past the dispatcher.
type Engine struct {
	repo       Repository
	readings   ReadingSource
	dispatcher *Dispatcher
	publisher  Publisher
	qos        byte
	timeout    time.Duration
	logger     Logger
	metrics    Metrics
}

// NewEngine creates an evaluation engine. The publisher is used for
// rule-fired events and may be nil.
func NewEngine(repo Repository, readings ReadingSource, dispatcher *Dispatcher, publisher Publisher, qos byte) *Engine {
	return &Engine{
		repo:       repo,
		readings:   readings,
		dispatcher: dispatcher,
		publisher:  publisher,
		qos:        qos,
		timeout:    defaultEvaluationTimeout,
		logger:     noopLogger{},
		metrics:    noopMetrics{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// SetMetrics sets the instrumentation hook for the engine.
func (e *Engine) SetMetrics(metrics Metrics) {
	e.metrics = metrics
}

// HandleReading processes one sensor reading arrival.
//
// It finds the enabled rules referencing the sensor and evaluates each in
// its own goroutine, blocking until all complete. Rule evaluations share no
// mutable state and do not block one another.
func (e *Engine) HandleReading(ctx context.Context, sensorID int64, raw string) {
	e.metrics.ReadingProcessed(sensorID)

	matched, err := e.repo.ListEnabledBySensor(ctx, sensorID)
	if err != nil {
		e.logger.Error("listing rules for sensor", "sensor_id", sensorID, "error", err)
		return
	}
	if len(matched) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i := range matched {
		wg.Add(1)
		go func(rule *Rule) {
			defer wg.Done()
			e.evaluateRule(ctx, rule, sensorID, raw)
		}(&matched[i])
	}
	wg.Wait()
}

// evaluateRule evaluates one rule against the triggering reading plus the
// latest readings of its other condition sensors, and dispatches if it
// fires.
func (e *Engine) evaluateRule(ctx context.Context, rule *Rule, sensorID int64, raw string) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	readings := map[int64]string{sensorID: raw}
	for _, cond := range rule.Conditions {
		if _, ok := readings[cond.SensorID]; ok {
			continue
		}
		latest, found, err := e.readings.LatestRaw(ctx, cond.SensorID)
		if err != nil {
			// Fail closed: the condition has no reading and cannot be met.
			e.logger.Warn("fetching latest reading",
				"rule_id", rule.ID, "sensor_id", cond.SensorID, "error", err)
			continue
		}
		if found {
			readings[cond.SensorID] = latest
		}
	}

	fired := EvaluateRule(rule, readings)
	e.metrics.RuleEvaluated(fired)
	if !fired {
		return
	}

	result := e.dispatcher.Dispatch(ctx, rule)
	e.metrics.RuleDispatched(string(result.Status))
	if result.Status != DispatchOK {
		return
	}

	if e.publisher != nil {
		payload := FiredPayload(rule, result)
		if err := e.publisher.Publish(mqtt.Topics{}.RuleFired(rule.ID), []byte(payload), e.qos, false); err != nil {
			e.logger.Warn("publishing rule fired event", "rule_id", rule.ID, "error", err)
		}
	}
}
