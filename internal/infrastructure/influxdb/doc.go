// Package influxdb provides time-series storage for sensor readings.
//
// It wraps the official InfluxDB v2 client with connection management,
// non-blocking batched writes, and latest-reading queries.
//
// Readings are written to the sensor_readings measurement, tagged by
// sensor_id. The raw payload is always stored as a field; numeric payloads
// are additionally stored as a float value field so the series can be
// graphed and queried directly.
//
// Writes are asynchronous. Errors surface through the callback registered
// with SetOnError rather than as return values.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // InfluxDB is optional; readings fall back to SQLite state history
//	}
//	client.WriteReading(3, "21.5", time.Now())
//
//	reading, err := client.LatestReading(ctx, 3, time.Hour)
package influxdb
