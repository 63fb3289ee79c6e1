package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// readingMeasurement is the measurement name for sensor readings.
const readingMeasurement = "sensor_readings"

// WriteReading records a single sensor reading.
//
// The raw value is always stored; when it parses as a number, the numeric
// value is stored alongside it so dashboards can graph the series directly.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - sensorID: Sensor identifier (-1 is the electricity-price feed)
//   - raw: The raw reading payload as published by the gateway
//   - ts: When the reading was taken
//
// Example:
//
//	client.WriteReading(3, "21.5", time.Now())
//	client.WriteReading(-1, `{"price": 0.42}`, time.Now())
func (c *Client) WriteReading(sensorID int64, raw string, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"raw": raw,
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		fields["value"] = v
	}

	point := write.NewPoint(
		readingMeasurement,
		map[string]string{
			"sensor_id": strconv.FormatInt(sensorID, 10),
		},
		fields,
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteReading, such as rule
// trigger events or dispatch outcomes.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
