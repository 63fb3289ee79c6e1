package device

import "time"

// Kind identifies what sort of device a record or discovery edge refers to.
type Kind string

// Device kinds used in discovery edges and access checks.
const (
	KindSwitch Kind = "switch"
	KindSensor Kind = "sensor"
)

// Switch is a controllable on/off device.
//
// The name is globally unique and doubles as the device's MQTT identity.
// Role is the role string a principal needs for direct access; it defaults
// to the switch's own name when not set explicitly.
type Switch struct {
	ID        int64
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sensor is a reading-producing device.
//
// ParentName, when set, names the gateway or hub the sensor hangs off.
// It is the anchor for transitive discovery access: a principal holding
// this sensor's role reaches everything its parent has discovered.
type Sensor struct {
	ID         int64
	Name       string
	Role       string
	Type       string
	ParentName *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DiscoveredDevice is a directed discovery edge: the device or gateway named
// DiscoveredBy has observed a device named Target of the given kind.
//
// The (DiscoveredBy, Target, Type) triple is unique. Re-discovery of a known
// edge is a conflict, which keeps the original row's first-discovery
// timestamp intact.
type DiscoveredDevice struct {
	ID           int64
	DiscoveredBy string
	Target       string
	Type         Kind
	CreatedAt    time.Time
}

// SwitchState is one append-only state history entry for a switch.
type SwitchState struct {
	ID         int64
	SwitchID   int64
	Value      string
	RecordedAt time.Time
}

// Switch state values used on the command and state topics.
const (
	StateOn  = "ON"
	StateOff = "OFF"
)
