// Package readings stores sensor readings and serves the latest one per
// sensor to the rule evaluation pipeline.
//
// Readings are raw strings as received from the broker; the rules package
// owns parsing them into numbers. The memory store is the hot path, the
// InfluxDB store the archive, and TieredStore combines the two.
package readings
