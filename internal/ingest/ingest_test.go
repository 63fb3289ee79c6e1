package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/hjemme/hjemme-core/internal/device"
	"github.com/hjemme/hjemme-core/internal/infrastructure/mqtt"
	"github.com/hjemme/hjemme-core/internal/readings"
)

type fakeSensorLookup struct {
	sensors map[string]*device.Sensor
}

func (f *fakeSensorLookup) GetSensorByName(_ context.Context, name string) (*device.Sensor, error) {
	s, ok := f.sensors[name]
	if !ok {
		return nil, device.ErrSensorNotFound
	}
	return s, nil
}

type fakeSwitchLookup struct {
	switches map[string]*device.Switch
}

func (f *fakeSwitchLookup) GetSwitchByName(_ context.Context, name string) (*device.Switch, error) {
	sw, ok := f.switches[name]
	if !ok {
		return nil, device.ErrSwitchNotFound
	}
	return sw, nil
}

type fakeDiscoveryRecorder struct {
	edges []device.DiscoveredDevice
	err   error
}

func (f *fakeDiscoveryRecorder) RecordDiscovery(_ context.Context, edge *device.DiscoveredDevice) error {
	if f.err != nil {
		return f.err
	}
	f.edges = append(f.edges, *edge)
	return nil
}

type stateRecord struct {
	switchID int64
	value    string
}

type fakeStateRecorder struct {
	records []stateRecord
}

func (f *fakeStateRecorder) RecordState(_ context.Context, switchID int64, value string) error {
	f.records = append(f.records, stateRecord{switchID, value})
	return nil
}

type engineCall struct {
	sensorID int64
	raw      string
}

type fakeEngine struct {
	calls []engineCall
}

func (f *fakeEngine) HandleReading(_ context.Context, sensorID int64, raw string) {
	f.calls = append(f.calls, engineCall{sensorID, raw})
}

type fakeSubscriber struct {
	topics []string
	err    error
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, _ mqtt.MessageHandler) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	return nil
}

func newTestIngestor() (*Ingestor, *fakeDiscoveryRecorder, *fakeStateRecorder, *readings.MemoryStore, *fakeEngine) {
	sensors := &fakeSensorLookup{sensors: map[string]*device.Sensor{
		"temp-livingroom": {ID: 3, Name: "temp-livingroom", Type: "temperature"},
	}}
	switches := &fakeSwitchLookup{switches: map[string]*device.Switch{
		"lamp1": {ID: 7, Name: "lamp1", Role: "lamp1"},
	}}
	discoveries := &fakeDiscoveryRecorder{}
	states := &fakeStateRecorder{}
	store := readings.NewMemoryStore()
	engine := &fakeEngine{}

	ing := NewIngestor(sensors, switches, discoveries, states, store, engine, 1)
	return ing, discoveries, states, store, engine
}

func TestHandleReading(t *testing.T) {
	ing, _, _, store, engine := newTestIngestor()

	err := ing.HandleReading("hjemme/reading/temp-livingroom", []byte("21.5"))
	if err != nil {
		t.Fatalf("HandleReading failed: %v", err)
	}

	raw, ok, err := store.LatestRaw(context.Background(), 3)
	if err != nil || !ok {
		t.Fatalf("LatestRaw = (%q, %v, %v), want reading present", raw, ok, err)
	}
	if raw != "21.5" {
		t.Errorf("stored raw = %q, want %q", raw, "21.5")
	}

	if len(engine.calls) != 1 {
		t.Fatalf("engine called %d times, want 1", len(engine.calls))
	}
	if engine.calls[0].sensorID != 3 || engine.calls[0].raw != "21.5" {
		t.Errorf("engine call = %+v, want sensor 3 raw 21.5", engine.calls[0])
	}
}

func TestHandleReadingUnknownSensorDropped(t *testing.T) {
	ing, _, _, _, engine := newTestIngestor()

	if err := ing.HandleReading("hjemme/reading/nonexistent", []byte("1")); err != nil {
		t.Fatalf("unknown sensor should be dropped silently, got %v", err)
	}
	if len(engine.calls) != 0 {
		t.Errorf("engine called for unknown sensor")
	}
}

func TestHandleReadingMalformedTopic(t *testing.T) {
	ing, _, _, _, _ := newTestIngestor()

	err := ing.HandleReading("hjemme/switch/lamp1/set", []byte("1"))
	if !errors.Is(err, ErrMalformedTopic) {
		t.Errorf("got %v, want ErrMalformedTopic", err)
	}
}

func TestHandleDiscovery(t *testing.T) {
	ing, discoveries, _, _, _ := newTestIngestor()

	err := ing.HandleDiscovery("hjemme/discovery/gateway1",
		[]byte(`{"target": "lamp1", "type": "switch"}`))
	if err != nil {
		t.Fatalf("HandleDiscovery failed: %v", err)
	}

	if len(discoveries.edges) != 1 {
		t.Fatalf("recorded %d edges, want 1", len(discoveries.edges))
	}
	edge := discoveries.edges[0]
	if edge.DiscoveredBy != "gateway1" || edge.Target != "lamp1" || edge.Type != device.KindSwitch {
		t.Errorf("edge = %+v, want gateway1 -> lamp1 (switch)", edge)
	}
}

func TestHandleDiscoveryDefaultsToSwitch(t *testing.T) {
	ing, discoveries, _, _, _ := newTestIngestor()

	err := ing.HandleDiscovery("hjemme/discovery/gateway1", []byte(`{"target": "lamp2"}`))
	if err != nil {
		t.Fatalf("HandleDiscovery failed: %v", err)
	}
	if discoveries.edges[0].Type != device.KindSwitch {
		t.Errorf("edge type = %q, want switch", discoveries.edges[0].Type)
	}
}

func TestHandleDiscoveryDuplicateTolerated(t *testing.T) {
	ing, discoveries, _, _, _ := newTestIngestor()
	discoveries.err = device.ErrDuplicateDiscovery

	err := ing.HandleDiscovery("hjemme/discovery/gateway1",
		[]byte(`{"target": "lamp1", "type": "switch"}`))
	if err != nil {
		t.Errorf("duplicate discovery should be tolerated, got %v", err)
	}
}

func TestHandleDiscoveryRejectsBadPayload(t *testing.T) {
	ing, _, _, _, _ := newTestIngestor()

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `not json`},
		{"missing target", `{"type": "switch"}`},
		{"unknown type", `{"target": "lamp1", "type": "thermostat"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ing.HandleDiscovery("hjemme/discovery/gateway1", []byte(tt.payload))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("got %v, want ErrMalformedPayload", err)
			}
		})
	}
}

func TestHandleSwitchState(t *testing.T) {
	ing, _, states, _, _ := newTestIngestor()

	if err := ing.HandleSwitchState("hjemme/switch/lamp1/state", []byte("on")); err != nil {
		t.Fatalf("HandleSwitchState failed: %v", err)
	}

	if len(states.records) != 1 {
		t.Fatalf("recorded %d states, want 1", len(states.records))
	}
	if states.records[0].switchID != 7 || states.records[0].value != device.StateOn {
		t.Errorf("record = %+v, want switch 7 value ON", states.records[0])
	}
}

func TestHandleSwitchStateDropsGarbage(t *testing.T) {
	ing, _, states, _, _ := newTestIngestor()

	if err := ing.HandleSwitchState("hjemme/switch/lamp1/state", []byte("DIMMED")); err != nil {
		t.Fatalf("garbage state should be dropped silently, got %v", err)
	}
	if len(states.records) != 0 {
		t.Errorf("garbage state was recorded")
	}
}

func TestHandleSwitchStateUnknownSwitchDropped(t *testing.T) {
	ing, _, states, _, _ := newTestIngestor()

	if err := ing.HandleSwitchState("hjemme/switch/ghost/state", []byte("ON")); err != nil {
		t.Fatalf("unknown switch should be dropped silently, got %v", err)
	}
	if len(states.records) != 0 {
		t.Errorf("state recorded for unknown switch")
	}
}

func TestStartRegistersSubscriptions(t *testing.T) {
	ing, _, _, _, _ := newTestIngestor()
	sub := &fakeSubscriber{}

	if err := ing.Start(sub); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	want := []string{"hjemme/reading/+", "hjemme/discovery/+", "hjemme/switch/+/state"}
	if len(sub.topics) != len(want) {
		t.Fatalf("subscribed to %d topics, want %d: %v", len(sub.topics), len(want), sub.topics)
	}
	for i, topic := range want {
		if sub.topics[i] != topic {
			t.Errorf("subscription %d = %q, want %q", i, sub.topics[i], topic)
		}
	}
}

func TestStartPropagatesSubscribeFailure(t *testing.T) {
	ing, _, _, _, _ := newTestIngestor()
	sub := &fakeSubscriber{err: errors.New("broker down")}

	if err := ing.Start(sub); err == nil {
		t.Error("expected error when subscription fails")
	}
}
