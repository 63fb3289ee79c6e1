package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Provider supplies the current electricity price.
type Provider interface {
	// CurrentPrice returns the price for the hour containing now.
	CurrentPrice(ctx context.Context) (float64, error)
}

// Client fetches day-ahead electricity prices over HTTP.
//
// The endpoint serves hourly delivery windows for a date, delivery area,
// and currency; CurrentPrice picks the window containing now.
type Client struct {
	httpClient *http.Client
	baseURL    string
	area       string
	currency   string
	now        func() time.Time
}

// NewClient creates a price client.
//
// Parameters:
//   - baseURL: Price API base URL, no trailing slash
//   - area: Delivery area code, e.g. "NO1"
//   - currency: Price currency, e.g. "NOK"
//   - timeout: Per-request timeout
func NewClient(baseURL, area, currency string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		area:       area,
		currency:   currency,
		now:        time.Now,
	}
}

// priceEntry is one hourly delivery window in the day-ahead response.
type priceEntry struct {
	DeliveryStart time.Time          `json:"deliveryStart"`
	DeliveryEnd   time.Time          `json:"deliveryEnd"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

// dayAheadResponse is the day-ahead price document for one date.
type dayAheadResponse struct {
	Entries []priceEntry `json:"multiAreaEntries"`
}

// CurrentPrice fetches today's day-ahead prices and returns the one for
// the hour containing now.
func (c *Client) CurrentPrice(ctx context.Context) (float64, error) {
	now := c.now()

	query := url.Values{}
	query.Set("date", now.UTC().Format("2006-01-02"))
	query.Set("deliveryArea", c.area)
	query.Set("currency", c.currency)

	endpoint := fmt.Sprintf("%s/DayAheadPrices?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var document dayAheadResponse
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		return 0, fmt.Errorf("decoding price response: %w", err)
	}

	for _, entry := range document.Entries {
		if now.Before(entry.DeliveryStart) || !now.Before(entry.DeliveryEnd) {
			continue
		}
		price, ok := entry.EntryPerArea[c.area]
		if !ok {
			continue
		}
		return price, nil
	}
	return 0, ErrNoCurrentPrice
}
