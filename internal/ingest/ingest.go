package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hjemme/hjemme-core/internal/device"
	"github.com/hjemme/hjemme-core/internal/infrastructure/mqtt"
	"github.com/hjemme/hjemme-core/internal/readings"
)

// defaultHandleTimeout bounds the processing of one broker message.
const defaultHandleTimeout = 10 * time.Second

// Logger defines the logging interface the ingestor uses.
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

// SensorLookup resolves sensors by their broker-facing name.
type SensorLookup interface {
	GetSensorByName(ctx context.Context, name string) (*device.Sensor, error)
}

// SwitchLookup resolves switches by their broker-facing name.
type SwitchLookup interface {
	GetSwitchByName(ctx context.Context, name string) (*device.Switch, error)
}

// DiscoveryRecorder persists discovery edges announced by gateways.
type DiscoveryRecorder interface {
	RecordDiscovery(ctx context.Context, edge *device.DiscoveredDevice) error
}

// StateRecorder appends externally reported switch state.
type StateRecorder interface {
	RecordState(ctx context.Context, switchID int64, value string) error
}

// RuleEngine is notified of each accepted sensor reading.
type RuleEngine interface {
	HandleReading(ctx context.Context, sensorID int64, raw string)
}

// Subscriber registers message handlers with the broker.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Metrics is the instrumentation hook for ingest.
type Metrics interface {
	DiscoveryEdgeRecorded()
}

// noopMetrics discards all instrumentation.
type noopMetrics struct{}

func (noopMetrics) DiscoveryEdgeRecorded() {}

// Ingestor routes broker messages into the core.
type Ingestor struct {
	sensors     SensorLookup
	switches    SwitchLookup
	discoveries DiscoveryRecorder
	states      StateRecorder
	store       readings.Store
	engine      RuleEngine
	qos         byte
	timeout     time.Duration
	logger      Logger
	metrics     Metrics
}

// NewIngestor creates an ingestor. The engine may be nil; readings are
// then only recorded in the store.
func NewIngestor(
	sensors SensorLookup,
	switches SwitchLookup,
	discoveries DiscoveryRecorder,
	states StateRecorder,
	store readings.Store,
	engine RuleEngine,
	qos byte,
) *Ingestor {
	return &Ingestor{
		sensors:     sensors,
		switches:    switches,
		discoveries: discoveries,
		states:      states,
		store:       store,
		engine:      engine,
		qos:         qos,
		timeout:     defaultHandleTimeout,
		logger:      noopLogger{},
		metrics:     noopMetrics{},
	}
}

// SetLogger sets the logger for the ingestor.
func (i *Ingestor) SetLogger(logger Logger) {
	i.logger = logger
}

// SetMetrics sets the instrumentation hook for the ingestor.
func (i *Ingestor) SetMetrics(metrics Metrics) {
	i.metrics = metrics
}

// Start registers the ingest subscriptions with the broker.
func (i *Ingestor) Start(sub Subscriber) error {
	topics := mqtt.Topics{}

	if err := sub.Subscribe(topics.AllReadings(), i.qos, i.HandleReading); err != nil {
		return fmt.Errorf("subscribing to readings: %w", err)
	}
	if err := sub.Subscribe(topics.AllDiscoveries(), i.qos, i.HandleDiscovery); err != nil {
		return fmt.Errorf("subscribing to discoveries: %w", err)
	}
	if err := sub.Subscribe(topics.AllSwitchStates(), i.qos, i.HandleSwitchState); err != nil {
		return fmt.Errorf("subscribing to switch states: %w", err)
	}

	i.logger.Info("ingest subscriptions registered")
	return nil
}

// HandleReading processes one sensor reading message.
//
// The reading is recorded in the store and handed to the rule engine.
// Readings from unknown sensors are dropped.
func (i *Ingestor) HandleReading(topic string, payload []byte) error {
	name := mqtt.ParseReadingTopic(topic)
	if name == "" {
		return fmt.Errorf("%w: %s", ErrMalformedTopic, topic)
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	sensor, err := i.sensors.GetSensorByName(ctx, name)
	if err != nil {
		if errors.Is(err, device.ErrSensorNotFound) {
			i.logger.Debug("reading from unknown sensor", "sensor", name)
			return nil
		}
		return fmt.Errorf("resolving sensor %q: %w", name, err)
	}

	raw := string(payload)

	reading := readings.Reading{SensorID: sensor.ID, Raw: raw, ReceivedAt: time.Now()}
	if err := i.store.Record(ctx, reading); err != nil {
		return fmt.Errorf("recording reading for sensor %q: %w", name, err)
	}

	if i.engine != nil {
		i.engine.HandleReading(ctx, sensor.ID, raw)
	}

	return nil
}

// discoveryAnnouncement is the payload a gateway publishes when it
// finds a device.
type discoveryAnnouncement struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

// HandleDiscovery processes one discovery announcement.
//
// Duplicate announcements are expected; gateways re-announce on every
// reconnect. They are acknowledged without creating a new edge.
func (i *Ingestor) HandleDiscovery(topic string, payload []byte) error {
	gateway := mqtt.ParseDiscoveryTopic(topic)
	if gateway == "" {
		return fmt.Errorf("%w: %s", ErrMalformedTopic, topic)
	}

	var ann discoveryAnnouncement
	if err := json.Unmarshal(payload, &ann); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if ann.Target == "" {
		return fmt.Errorf("%w: missing target", ErrMalformedPayload)
	}

	kind := device.Kind(ann.Type)
	switch kind {
	case device.KindSwitch, device.KindSensor:
	case "":
		kind = device.KindSwitch
	default:
		return fmt.Errorf("%w: unknown device type %q", ErrMalformedPayload, ann.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	edge := &device.DiscoveredDevice{
		DiscoveredBy: gateway,
		Target:       ann.Target,
		Type:         kind,
	}
	if err := i.discoveries.RecordDiscovery(ctx, edge); err != nil {
		if errors.Is(err, device.ErrDuplicateDiscovery) {
			i.logger.Debug("discovery edge already known",
				"gateway", gateway, "target", ann.Target)
			return nil
		}
		return fmt.Errorf("recording discovery edge: %w", err)
	}

	i.metrics.DiscoveryEdgeRecorded()
	i.logger.Info("discovery edge recorded",
		"gateway", gateway, "target", ann.Target, "type", string(kind))
	return nil
}

// HandleSwitchState processes one externally reported switch state.
//
// Only the ON/OFF vocabulary is accepted; anything else is dropped with
// a log line so a misbehaving gateway cannot poison the state history.
func (i *Ingestor) HandleSwitchState(topic string, payload []byte) error {
	name := mqtt.ParseSwitchStateTopic(topic)
	if name == "" {
		return fmt.Errorf("%w: %s", ErrMalformedTopic, topic)
	}

	value := strings.ToUpper(strings.TrimSpace(string(payload)))
	if value != device.StateOn && value != device.StateOff {
		i.logger.Warn("dropping unrecognized switch state",
			"switch", name, "value", string(payload))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	sw, err := i.switches.GetSwitchByName(ctx, name)
	if err != nil {
		if errors.Is(err, device.ErrSwitchNotFound) {
			i.logger.Debug("state from unknown switch", "switch", name)
			return nil
		}
		return fmt.Errorf("resolving switch %q: %w", name, err)
	}

	if err := i.states.RecordState(ctx, sw.ID, value); err != nil {
		return fmt.Errorf("recording state for switch %q: %w", name, err)
	}

	return nil
}
