package rules

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeReadingSource serves latest readings from a map.
type fakeReadingSource struct {
	readings map[int64]string
	fail     bool
}

func (f *fakeReadingSource) LatestRaw(_ context.Context, sensorID int64) (string, bool, error) {
	if f.fail {
		return "", false, errors.New("store down")
	}
	raw, ok := f.readings[sensorID]
	return raw, ok, nil
}

// syncStateStore is a fakeStateStore safe for concurrent rule evaluations.
type syncStateStore struct {
	mu     sync.Mutex
	values []string
}

func (s *syncStateStore) RecordState(_ context.Context, _ int64, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, value)
	return nil
}

func (s *syncStateStore) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.values...)
}

func newTestEngine(t *testing.T, readings *fakeReadingSource, states *syncStateStore) (*Engine, Repository) {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	dispatcher := NewDispatcher(storeWithSwitch7(), states, nil, 1)
	return NewEngine(repo, readings, dispatcher, nil, 1), repo
}

func TestEngine_HandleReadingFiresRule(t *testing.T) {
	states := &syncStateStore{}
	engine, repo := newTestEngine(t, &fakeReadingSource{}, states)
	ctx := context.Background()

	if err := repo.Create(ctx, testRule()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	engine.HandleReading(ctx, 3, "26.5")

	if got := states.recorded(); len(got) != 1 || got[0] != "ON" {
		t.Errorf("recorded states = %v, want [ON]", got)
	}
}

func TestEngine_HandleReadingBelowThreshold(t *testing.T) {
	states := &syncStateStore{}
	engine, repo := newTestEngine(t, &fakeReadingSource{}, states)
	ctx := context.Background()

	if err := repo.Create(ctx, testRule()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	engine.HandleReading(ctx, 3, "24.0")

	if got := states.recorded(); len(got) != 0 {
		t.Errorf("rule fired below threshold: %v", got)
	}
}

func TestEngine_MultiConditionFetchesOtherSensors(t *testing.T) {
	states := &syncStateStore{}
	readings := &fakeReadingSource{readings: map[int64]string{4: "50"}}
	engine, repo := newTestEngine(t, readings, states)
	ctx := context.Background()

	combinator := CombinatorAnd
	rule := testRule()
	rule.LogicalOperator = &combinator
	rule.Conditions = append(rule.Conditions,
		Condition{SensorType: "humidity", SensorID: 4, Operator: "<", Threshold: 60})
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	engine.HandleReading(ctx, 3, "26.5")

	if got := states.recorded(); len(got) != 1 {
		t.Errorf("recorded states = %v, want one dispatch", got)
	}
}

func TestEngine_FailsClosedOnReadingStoreError(t *testing.T) {
	states := &syncStateStore{}
	engine, repo := newTestEngine(t, &fakeReadingSource{fail: true}, states)
	ctx := context.Background()

	combinator := CombinatorAnd
	rule := testRule()
	rule.LogicalOperator = &combinator
	rule.Conditions = append(rule.Conditions,
		Condition{SensorType: "humidity", SensorID: 4, Operator: "<", Threshold: 60})
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	engine.HandleReading(ctx, 3, "26.5")

	if got := states.recorded(); len(got) != 0 {
		t.Errorf("rule fired despite unavailable reading store: %v", got)
	}
}

func TestEngine_PriceSentinelReading(t *testing.T) {
	states := &syncStateStore{}
	engine, repo := newTestEngine(t, &fakeReadingSource{}, states)
	ctx := context.Background()

	rule := testRule()
	rule.Conditions = []Condition{
		{SensorType: SensorTypePrice, SensorID: PriceSensorID, Operator: "<", Threshold: 0.5},
	}
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	engine.HandleReading(ctx, PriceSensorID, `{"price": 0.42}`)

	if got := states.recorded(); len(got) != 1 {
		t.Errorf("price rule did not fire: %v", got)
	}
}

func TestEngine_IndependentRulesAllEvaluate(t *testing.T) {
	states := &syncStateStore{}
	engine, repo := newTestEngine(t, &fakeReadingSource{}, states)
	ctx := context.Background()

	// Two rules on the same sensor; one fires, one does not, and the
	// non-firing one must not block the other.
	hot := testRule()
	cold := testRule()
	cold.Action = ActionOff
	cold.Conditions = []Condition{
		{SensorType: "temperature", SensorID: 3, Operator: "<", Threshold: 10},
	}
	for _, rule := range []*Rule{hot, cold} {
		if err := repo.Create(ctx, rule); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	engine.HandleReading(ctx, 3, "26.5")

	if got := states.recorded(); len(got) != 1 || got[0] != "ON" {
		t.Errorf("recorded states = %v, want [ON]", got)
	}
}

func TestEngine_PublishesFiredEvent(t *testing.T) {
	states := &syncStateStore{}
	publisher := &fakePublisher{}
	repo := NewSQLiteRepository(setupTestDB(t))
	dispatcher := NewDispatcher(storeWithSwitch7(), states, nil, 1)
	engine := NewEngine(repo, &fakeReadingSource{}, dispatcher, publisher, 1)
	ctx := context.Background()

	rule := testRule()
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	engine.HandleReading(ctx, 3, "26.5")

	if len(publisher.topics) != 1 {
		t.Fatalf("published topics = %v, want one fired event", publisher.topics)
	}
	want := "hjemme/automation/" + "1" + "/fired"
	if publisher.topics[0] != want {
		t.Errorf("fired topic = %q, want %q", publisher.topics[0], want)
	}
}
