package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hjemme/hjemme-core/internal/readings"
	"github.com/hjemme/hjemme-core/internal/rules"
)

// fixedNow is inside the second delivery window of the test document.
var fixedNow = time.Date(2026, 8, 1, 13, 30, 0, 0, time.UTC)

func priceDocument() string {
	return `{
		"multiAreaEntries": [
			{
				"deliveryStart": "2026-08-01T12:00:00Z",
				"deliveryEnd": "2026-08-01T13:00:00Z",
				"entryPerArea": {"NO1": 0.31}
			},
			{
				"deliveryStart": "2026-08-01T13:00:00Z",
				"deliveryEnd": "2026-08-01T14:00:00Z",
				"entryPerArea": {"NO1": 0.42, "NO2": 0.38}
			}
		]
	}`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "NO1", "NOK", 5*time.Second)
	client.now = func() time.Time { return fixedNow }
	return client
}

func TestClient_CurrentPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("deliveryArea"); got != "NO1" {
			t.Errorf("deliveryArea = %q, want NO1", got)
		}
		if got := r.URL.Query().Get("date"); got != "2026-08-01" {
			t.Errorf("date = %q, want 2026-08-01", got)
		}
		fmt.Fprint(w, priceDocument())
	})

	price, err := client.CurrentPrice(context.Background())
	if err != nil {
		t.Fatalf("CurrentPrice() error = %v", err)
	}
	if price != 0.42 {
		t.Errorf("CurrentPrice() = %v, want 0.42 for the 13:00 window", price)
	}
}

func TestClient_CurrentPriceNoWindow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"multiAreaEntries": []}`)
	})

	if _, err := client.CurrentPrice(context.Background()); !errors.Is(err, ErrNoCurrentPrice) {
		t.Errorf("CurrentPrice() error = %v, want ErrNoCurrentPrice", err)
	}
}

func TestClient_CurrentPriceMissingArea(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"multiAreaEntries": [{
				"deliveryStart": "2026-08-01T13:00:00Z",
				"deliveryEnd": "2026-08-01T14:00:00Z",
				"entryPerArea": {"SE3": 0.2}
			}]
		}`)
	})

	if _, err := client.CurrentPrice(context.Background()); !errors.Is(err, ErrNoCurrentPrice) {
		t.Errorf("CurrentPrice() error = %v, want ErrNoCurrentPrice", err)
	}
}

func TestClient_CurrentPriceServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.CurrentPrice(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("CurrentPrice() error = %v, want ErrFetchFailed", err)
	}
}

// fixedProvider returns a constant price.
type fixedProvider struct {
	price float64
	err   error
}

func (p fixedProvider) CurrentPrice(context.Context) (float64, error) {
	return p.price, p.err
}

// captureSink records reading fan-outs.
type captureSink struct {
	sensorIDs []int64
	raws      []string
}

func (s *captureSink) HandleReading(_ context.Context, sensorID int64, raw string) {
	s.sensorIDs = append(s.sensorIDs, sensorID)
	s.raws = append(s.raws, raw)
}

func TestRefresher_RefreshFeedsPipeline(t *testing.T) {
	store := readings.NewMemoryStore()
	sink := &captureSink{}
	r := NewRefresher(fixedProvider{price: 0.42}, store, sink, "0 * * * *")

	r.refresh()

	raw, ok, err := store.LatestRaw(context.Background(), rules.PriceSensorID)
	if err != nil || !ok {
		t.Fatalf("LatestRaw() = (%v, %v), want recorded price", ok, err)
	}
	if raw != "0.42" {
		t.Errorf("recorded price = %q, want 0.42", raw)
	}
	if len(sink.sensorIDs) != 1 || sink.sensorIDs[0] != rules.PriceSensorID {
		t.Errorf("sink received %v, want one reading for the price sensor", sink.sensorIDs)
	}
}

func TestRefresher_FetchFailureSkipsCycle(t *testing.T) {
	store := readings.NewMemoryStore()
	sink := &captureSink{}
	r := NewRefresher(fixedProvider{err: ErrFetchFailed}, store, sink, "0 * * * *")

	r.refresh()

	if _, ok, _ := store.LatestRaw(context.Background(), rules.PriceSensorID); ok {
		t.Error("failed fetch must not record a reading")
	}
	if len(sink.sensorIDs) != 0 {
		t.Error("failed fetch must not fan out")
	}
}

func TestRefresher_BadCronSpec(t *testing.T) {
	r := NewRefresher(fixedProvider{price: 1}, readings.NewMemoryStore(), nil, "not a cron spec")
	if err := r.Start(); err == nil {
		t.Error("Start() with invalid cron spec should fail")
		r.Stop()
	}
}
