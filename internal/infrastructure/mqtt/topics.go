package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the hjemme MQTT namespace.
//
// Gateways publish sensor readings under hjemme/reading/{sensor_name};
// the core publishes switch commands under hjemme/switch/{name}/set and
// canonical state under hjemme/switch/{name}/state.
const (
	// TopicPrefix is the base for all hjemme topics.
	TopicPrefix = "hjemme"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "hjemme/system"
)

// Topics provides builders for hjemme MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.SwitchCommand("lamp1")
//	// Returns: "hjemme/switch/lamp1/set"
type Topics struct{}

// Reading returns the topic a gateway publishes sensor readings on.
//
// Example: hjemme/reading/temp-livingroom
func (Topics) Reading(sensorName string) string {
	return fmt.Sprintf("%s/reading/%s", TopicPrefix, sensorName)
}

// AllReadings returns a pattern matching every sensor reading topic.
//
// Pattern: hjemme/reading/+
func (Topics) AllReadings() string {
	return fmt.Sprintf("%s/reading/+", TopicPrefix)
}

// SwitchCommand returns the topic for commands to a switch.
//
// Example: hjemme/switch/lamp1/set
func (Topics) SwitchCommand(switchName string) string {
	return fmt.Sprintf("%s/switch/%s/set", TopicPrefix, switchName)
}

// SwitchState returns the canonical switch state topic.
// This is the authoritative state published by the core after a dispatch.
//
// Example: hjemme/switch/lamp1/state
func (Topics) SwitchState(switchName string) string {
	return fmt.Sprintf("%s/switch/%s/state", TopicPrefix, switchName)
}

// AllSwitchStates returns a pattern matching every switch state topic.
//
// Pattern: hjemme/switch/+/state
func (Topics) AllSwitchStates() string {
	return fmt.Sprintf("%s/switch/+/state", TopicPrefix)
}

// Discovery returns the topic a gateway announces discovered devices on.
//
// Example: hjemme/discovery/gateway1
func (Topics) Discovery(gatewayName string) string {
	return fmt.Sprintf("%s/discovery/%s", TopicPrefix, gatewayName)
}

// AllDiscoveries returns a pattern matching every discovery topic.
//
// Pattern: hjemme/discovery/+
func (Topics) AllDiscoveries() string {
	return fmt.Sprintf("%s/discovery/+", TopicPrefix)
}

// RuleFired returns the topic for automation rule trigger events.
//
// Example: hjemme/automation/42/fired
func (Topics) RuleFired(ruleID int64) string {
	return fmt.Sprintf("%s/automation/%d/fired", TopicPrefix, ruleID)
}

// SystemStatus returns the system status topic (used for LWT).
//
// Example: hjemme/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// ParseReadingTopic extracts the sensor name from a reading topic.
// Returns the empty string if the topic does not match the reading scheme.
func ParseReadingTopic(topic string) string {
	name, ok := strings.CutPrefix(topic, TopicPrefix+"/reading/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return ""
	}
	return name
}

// ParseDiscoveryTopic extracts the gateway name from a discovery topic.
// Returns the empty string if the topic does not match the discovery scheme.
func ParseDiscoveryTopic(topic string) string {
	name, ok := strings.CutPrefix(topic, TopicPrefix+"/discovery/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return ""
	}
	return name
}

// ParseSwitchStateTopic extracts the switch name from a canonical state topic.
// Returns the empty string if the topic does not match the state scheme.
func ParseSwitchStateTopic(topic string) string {
	rest, ok := strings.CutPrefix(topic, TopicPrefix+"/switch/")
	if !ok {
		return ""
	}
	name, ok := strings.CutSuffix(rest, "/state")
	if !ok || name == "" || strings.Contains(name, "/") {
		return ""
	}
	return name
}
