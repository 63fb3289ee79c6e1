package influxdb

import "errors"

// Sentinel errors, matched with errors.Is.
var (
	// ErrNotConnected means the client has been closed or never connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed means the initial ping to the server failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed marks synchronous write failures. Batched writes
	// report errors through the SetOnError callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when config disables archival.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrNoData means a query found no reading for the sensor within the
	// lookback window.
	ErrNoData = errors.New("influxdb: no data for sensor")
)
