package pricing

import "errors"

// Domain errors for the pricing package.
var (
	// ErrFetchFailed is returned when the price API is unreachable or
	// responds with a non-200 status.
	ErrFetchFailed = errors.New("pricing: fetch failed")

	// ErrNoCurrentPrice is returned when the day-ahead document holds no
	// delivery window covering the current hour.
	ErrNoCurrentPrice = errors.New("pricing: no price for current hour")
)
