package readings

import (
	"context"
	"sync"
	"time"
)

// Reading is one raw sensor value as received from the broker.
type Reading struct {
	SensorID   int64
	Raw        string
	ReceivedAt time.Time
}

// Store holds the latest reading per sensor.
type Store interface {
	// Record stores a new reading for its sensor.
	Record(ctx context.Context, reading Reading) error

	// LatestRaw returns the latest raw value for the sensor and whether
	// one is known.
	LatestRaw(ctx context.Context, sensorID int64) (string, bool, error)
}

// MemoryStore keeps the latest reading per sensor in memory.
//
// It is the hot path for rule evaluation; readings are also archived to
// the time-series store when one is configured (see InfluxStore and
// TieredStore).
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[int64]Reading
}

// NewMemoryStore creates an empty in-memory reading store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[int64]Reading)}
}

// Record stores the reading, replacing any previous one for the sensor.
func (s *MemoryStore) Record(_ context.Context, reading Reading) error {
	if reading.ReceivedAt.IsZero() {
		reading.ReceivedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[reading.SensorID] = reading
	return nil
}

// LatestRaw returns the latest raw value for the sensor.
func (s *MemoryStore) LatestRaw(_ context.Context, sensorID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reading, ok := s.latest[sensorID]
	if !ok {
		return "", false, nil
	}
	return reading.Raw, true, nil
}

// Latest returns the full latest reading for the sensor.
func (s *MemoryStore) Latest(sensorID int64) (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reading, ok := s.latest[sensorID]
	return reading, ok
}
