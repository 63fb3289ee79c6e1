package readings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hjemme/hjemme-core/internal/infrastructure/influxdb"
)

// defaultLookback bounds how far back the time-series store is searched
// for a sensor's latest reading. A reading older than this is stale enough
// that rules should fail closed rather than act on it.
const defaultLookback = 24 * time.Hour

// InfluxStore archives readings to InfluxDB and answers latest-reading
// queries from it.
type InfluxStore struct {
	client   *influxdb.Client
	lookback time.Duration
}

// NewInfluxStore creates an InfluxDB-backed reading store.
func NewInfluxStore(client *influxdb.Client) *InfluxStore {
	return &InfluxStore{client: client, lookback: defaultLookback}
}

// Record writes the reading to the time-series store. Writes are batched
// and asynchronous; errors surface through the client's error callback.
func (s *InfluxStore) Record(_ context.Context, reading Reading) error {
	ts := reading.ReceivedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	s.client.WriteReading(reading.SensorID, reading.Raw, ts)
	return nil
}

// LatestRaw queries the most recent reading within the lookback window.
func (s *InfluxStore) LatestRaw(ctx context.Context, sensorID int64) (string, bool, error) {
	reading, err := s.client.LatestReading(ctx, sensorID, s.lookback)
	if err != nil {
		if errors.Is(err, influxdb.ErrNoData) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("querying latest reading: %w", err)
	}
	return reading.Raw, true, nil
}

// TieredStore records to both tiers and reads from memory first, falling
// back to the time-series store after a restart empties the memory tier.
type TieredStore struct {
	hot     *MemoryStore
	archive Store
}

// NewTieredStore combines a memory tier with an archive tier.
func NewTieredStore(hot *MemoryStore, archive Store) *TieredStore {
	return &TieredStore{hot: hot, archive: archive}
}

// Record stores the reading in both tiers.
func (s *TieredStore) Record(ctx context.Context, reading Reading) error {
	if err := s.hot.Record(ctx, reading); err != nil {
		return err
	}
	return s.archive.Record(ctx, reading)
}

// LatestRaw reads from the memory tier, then the archive.
func (s *TieredStore) LatestRaw(ctx context.Context, sensorID int64) (string, bool, error) {
	raw, ok, err := s.hot.LatestRaw(ctx, sensorID)
	if err == nil && ok {
		return raw, true, nil
	}
	return s.archive.LatestRaw(ctx, sensorID)
}
