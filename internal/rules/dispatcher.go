package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/hjemme/hjemme-core/internal/device"
	"github.com/hjemme/hjemme-core/internal/infrastructure/mqtt"
)

// StateStore appends switch state records for dispatched actions.
type StateStore interface {
	RecordState(ctx context.Context, switchID int64, value string) error
}

// Publisher sends switch commands to the broker. May be absent; dispatch
// then records state only.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// DispatchStatus classifies the outcome of a dispatch attempt.
type DispatchStatus string

// Dispatch outcomes.
const (
	DispatchOK             DispatchStatus = "ok"
	DispatchTargetNotFound DispatchStatus = "target_not_found"
	DispatchUnsupported    DispatchStatus = "unsupported_target_type"
	DispatchFailed         DispatchStatus = "failed"
)

// DispatchResult reports what a dispatch attempt did.
type DispatchResult struct {
	Status DispatchStatus
	Target string
	Value  string
}

// Dispatcher translates a triggered rule into a switch command.
//
// Switch state uses the "ON"/"OFF" vocabulary throughout: the state record
// and the MQTT command payload carry the same value.
//
// Dispatch never returns an error. Failures are logged, reflected in the
// result status, and absorbed; a failed dispatch must not disturb the
// processing of other rules.
type Dispatcher struct {
	switches  SwitchStore
	states    StateStore
	publisher Publisher
	qos       byte
	logger    Logger
}

// NewDispatcher creates a dispatcher. The publisher may be nil when the
// broker connection is down; state is still recorded.
func NewDispatcher(switches SwitchStore, states StateStore, publisher Publisher, qos byte) *Dispatcher {
	return &Dispatcher{
		switches:  switches,
		states:    states,
		publisher: publisher,
		qos:       qos,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch executes a triggered rule's action against its target.
func (d *Dispatcher) Dispatch(ctx context.Context, rule *Rule) DispatchResult {
	if rule.TargetType != TargetTypeSwitch {
		d.logger.Warn("unsupported dispatch target type",
			"rule_id", rule.ID, "target_type", rule.TargetType)
		return DispatchResult{Status: DispatchUnsupported}
	}

	sw, err := d.switches.GetSwitch(ctx, rule.TargetID)
	if err != nil {
		if errors.Is(err, device.ErrSwitchNotFound) {
			d.logger.Warn("dispatch target not found",
				"rule_id", rule.ID, "target_id", rule.TargetID)
			return DispatchResult{Status: DispatchTargetNotFound}
		}
		d.logger.Error("resolving dispatch target",
			"rule_id", rule.ID, "target_id", rule.TargetID, "error", err)
		return DispatchResult{Status: DispatchFailed}
	}

	value := actionValue(rule.Action)
	result := DispatchResult{Status: DispatchOK, Target: sw.Name, Value: value}

	if err := d.states.RecordState(ctx, sw.ID, value); err != nil {
		d.logger.Error("recording dispatched state",
			"rule_id", rule.ID, "switch", sw.Name, "error", err)
		return DispatchResult{Status: DispatchFailed, Target: sw.Name, Value: value}
	}

	if d.publisher != nil {
		topic := mqtt.Topics{}.SwitchCommand(sw.Name)
		if err := d.publisher.Publish(topic, []byte(value), d.qos, false); err != nil {
			// State is already recorded; the retained state topic will
			// reconcile the device on reconnect.
			d.logger.Error("publishing switch command",
				"rule_id", rule.ID, "topic", topic, "error", err)
			return DispatchResult{Status: DispatchFailed, Target: sw.Name, Value: value}
		}
	}

	d.logger.Info("rule dispatched",
		"rule_id", rule.ID, "switch", sw.Name, "value", value)
	return result
}

// actionValue maps a rule action to the switch state vocabulary.
func actionValue(action string) string {
	if action == ActionOff {
		return device.StateOff
	}
	return device.StateOn
}

// FiredPayload is the event published on the rule-fired topic after a
// successful dispatch.
func FiredPayload(rule *Rule, result DispatchResult) string {
	return fmt.Sprintf(`{"rule_id":%d,"target":%q,"value":%q}`, rule.ID, result.Target, result.Value)
}
