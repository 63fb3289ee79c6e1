package influxdb

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Reading is a single sensor reading retrieved from InfluxDB.
type Reading struct {
	SensorID int64
	Value    float64
	Raw      string
	Time     time.Time
}

// LatestReading returns the most recent reading for the given sensor.
//
// It queries the last point in the sensor_readings measurement within the
// lookback window. Returns ErrNoData when the sensor has no readings in
// that window.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sensorID: Sensor identifier (-1 is the electricity-price feed)
//   - lookback: How far back to search for a reading
func (c *Client) LatestReading(ctx context.Context, sensorID int64, lookback time.Duration) (*Reading, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r.sensor_id == %q)
  |> filter(fn: (r) => r._field == "value" or r._field == "raw")
  |> last()
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")`,
		c.cfg.Bucket,
		int64(lookback.Seconds()),
		readingMeasurement,
		strconv.FormatInt(sensorID, 10),
	)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("querying latest reading: %w", err)
	}
	defer func() { _ = result.Close() }()

	if !result.Next() {
		if result.Err() != nil {
			return nil, fmt.Errorf("reading query result: %w", result.Err())
		}
		return nil, ErrNoData
	}

	record := result.Record()
	reading := &Reading{
		SensorID: sensorID,
		Time:     record.Time(),
	}

	if v, ok := record.ValueByKey("value").(float64); ok {
		reading.Value = v
	}
	if raw, ok := record.ValueByKey("raw").(string); ok {
		reading.Raw = raw
	}

	return reading, nil
}
