package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrSwitchNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSwitchNotFound is returned when a switch ID or name does not exist.
	ErrSwitchNotFound = errors.New("device: switch not found")

	// ErrSensorNotFound is returned when a sensor ID or name does not exist.
	ErrSensorNotFound = errors.New("device: sensor not found")

	// ErrDeviceExists is returned when creating a device whose name is taken.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrDuplicateDiscovery is returned when a discovery edge with the same
	// (discovered_by, target, type) triple already exists.
	ErrDuplicateDiscovery = errors.New("device: discovery edge already exists")

	// ErrInvalidName is returned when a device name is empty.
	ErrInvalidName = errors.New("device: invalid name")
)
