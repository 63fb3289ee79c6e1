package readings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_RecordAndLatest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := store.LatestRaw(ctx, 3); err != nil || ok {
		t.Errorf("LatestRaw() on empty store = (%v, %v), want not found", ok, err)
	}

	if err := store.Record(ctx, Reading{SensorID: 3, Raw: "21.5"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Record(ctx, Reading{SensorID: 3, Raw: "22.0"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	raw, ok, err := store.LatestRaw(ctx, 3)
	if err != nil {
		t.Fatalf("LatestRaw() error = %v", err)
	}
	if !ok || raw != "22.0" {
		t.Errorf("LatestRaw() = (%q, %v), want latest value 22.0", raw, ok)
	}

	reading, ok := store.Latest(3)
	if !ok || reading.ReceivedAt.IsZero() {
		t.Errorf("Latest() = (%+v, %v), want timestamped reading", reading, ok)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			_ = store.Record(ctx, Reading{SensorID: n % 4, Raw: "1"})
		}(int64(i))
		go func(n int64) {
			defer wg.Done()
			_, _, _ = store.LatestRaw(ctx, n%4)
		}(int64(i))
	}
	wg.Wait()
}

// fakeArchive implements Store for tiering tests.
type fakeArchive struct {
	recorded []Reading
	latest   map[int64]string
	fail     bool
}

func (f *fakeArchive) Record(_ context.Context, reading Reading) error {
	if f.fail {
		return errors.New("archive down")
	}
	f.recorded = append(f.recorded, reading)
	return nil
}

func (f *fakeArchive) LatestRaw(_ context.Context, sensorID int64) (string, bool, error) {
	if f.fail {
		return "", false, errors.New("archive down")
	}
	raw, ok := f.latest[sensorID]
	return raw, ok, nil
}

func TestTieredStore_RecordWritesBothTiers(t *testing.T) {
	hot := NewMemoryStore()
	archive := &fakeArchive{}
	store := NewTieredStore(hot, archive)
	ctx := context.Background()

	reading := Reading{SensorID: 3, Raw: "21.5", ReceivedAt: time.Now()}
	if err := store.Record(ctx, reading); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if _, ok := hot.Latest(3); !ok {
		t.Error("reading missing from memory tier")
	}
	if len(archive.recorded) != 1 {
		t.Error("reading missing from archive tier")
	}
}

func TestTieredStore_FallsBackToArchive(t *testing.T) {
	archive := &fakeArchive{latest: map[int64]string{3: "20.0"}}
	store := NewTieredStore(NewMemoryStore(), archive)
	ctx := context.Background()

	raw, ok, err := store.LatestRaw(ctx, 3)
	if err != nil {
		t.Fatalf("LatestRaw() error = %v", err)
	}
	if !ok || raw != "20.0" {
		t.Errorf("LatestRaw() = (%q, %v), want archive value", raw, ok)
	}

	// Memory tier wins once populated.
	if err := store.Record(ctx, Reading{SensorID: 3, Raw: "25.0"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	raw, _, err = store.LatestRaw(ctx, 3)
	if err != nil {
		t.Fatalf("LatestRaw() error = %v", err)
	}
	if raw != "25.0" {
		t.Errorf("LatestRaw() = %q, want memory tier value", raw)
	}
}
