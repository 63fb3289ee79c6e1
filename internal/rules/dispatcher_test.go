package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/hjemme/hjemme-core/internal/device"
)

// fakeStateStore records appended states in memory.
type fakeStateStore struct {
	states []struct {
		switchID int64
		value    string
	}
	fail bool
}

func (f *fakeStateStore) RecordState(_ context.Context, switchID int64, value string) error {
	if f.fail {
		return errors.New("store down")
	}
	f.states = append(f.states, struct {
		switchID int64
		value    string
	}{switchID, value})
	return nil
}

// fakePublisher captures published messages.
type fakePublisher struct {
	topics   []string
	payloads []string
	fail     bool
}

func (f *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func TestDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		wantValue  string
		wantStatus DispatchStatus
	}{
		{name: "on", action: ActionOn, wantValue: device.StateOn, wantStatus: DispatchOK},
		{name: "off", action: ActionOff, wantValue: device.StateOff, wantStatus: DispatchOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states := &fakeStateStore{}
			publisher := &fakePublisher{}
			d := NewDispatcher(storeWithSwitch7(), states, publisher, 1)

			rule := testRule()
			rule.ID = 5
			rule.Action = tt.action

			result := d.Dispatch(context.Background(), rule)
			if result.Status != tt.wantStatus {
				t.Fatalf("Dispatch() status = %s, want %s", result.Status, tt.wantStatus)
			}
			if result.Value != tt.wantValue {
				t.Errorf("Dispatch() value = %q, want %q", result.Value, tt.wantValue)
			}

			if len(states.states) != 1 || states.states[0].value != tt.wantValue {
				t.Errorf("recorded states = %v", states.states)
			}
			if len(publisher.topics) != 1 || publisher.topics[0] != "hjemme/switch/lamp1/set" {
				t.Errorf("published topics = %v", publisher.topics)
			}
			if publisher.payloads[0] != tt.wantValue {
				t.Errorf("published payload = %q, want %q", publisher.payloads[0], tt.wantValue)
			}
		})
	}
}

func TestDispatcher_TargetNotFound(t *testing.T) {
	states := &fakeStateStore{}
	d := NewDispatcher(storeWithSwitch7(), states, &fakePublisher{}, 1)

	rule := testRule()
	rule.TargetID = 99

	result := d.Dispatch(context.Background(), rule)
	if result.Status != DispatchTargetNotFound {
		t.Errorf("Dispatch() status = %s, want %s", result.Status, DispatchTargetNotFound)
	}
	if len(states.states) != 0 {
		t.Error("no state should be recorded for a missing target")
	}
}

func TestDispatcher_UnsupportedTargetType(t *testing.T) {
	d := NewDispatcher(storeWithSwitch7(), &fakeStateStore{}, &fakePublisher{}, 1)

	rule := testRule()
	rule.TargetType = "Thermostat"

	result := d.Dispatch(context.Background(), rule)
	if result.Status != DispatchUnsupported {
		t.Errorf("Dispatch() status = %s, want %s", result.Status, DispatchUnsupported)
	}
}

func TestDispatcher_FailuresAbsorbed(t *testing.T) {
	t.Run("state store failure", func(t *testing.T) {
		d := NewDispatcher(storeWithSwitch7(), &fakeStateStore{fail: true}, &fakePublisher{}, 1)

		result := d.Dispatch(context.Background(), testRule())
		if result.Status != DispatchFailed {
			t.Errorf("Dispatch() status = %s, want %s", result.Status, DispatchFailed)
		}
	})

	t.Run("publish failure after state recorded", func(t *testing.T) {
		states := &fakeStateStore{}
		d := NewDispatcher(storeWithSwitch7(), states, &fakePublisher{fail: true}, 1)

		result := d.Dispatch(context.Background(), testRule())
		if result.Status != DispatchFailed {
			t.Errorf("Dispatch() status = %s, want %s", result.Status, DispatchFailed)
		}
		if len(states.states) != 1 {
			t.Error("state record should survive a publish failure")
		}
	})
}

func TestDispatcher_NilPublisher(t *testing.T) {
	states := &fakeStateStore{}
	d := NewDispatcher(storeWithSwitch7(), states, nil, 1)

	result := d.Dispatch(context.Background(), testRule())
	if result.Status != DispatchOK {
		t.Errorf("Dispatch() status = %s, want state-only dispatch to succeed", result.Status)
	}
	if len(states.states) != 1 {
		t.Error("state should be recorded without a publisher")
	}
}
