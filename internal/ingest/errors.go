package ingest

import "errors"

// Sentinel errors for the ingest package.
var (
	// ErrMalformedTopic indicates a message arrived on a topic that does
	// not match the expected scheme.
	ErrMalformedTopic = errors.New("ingest: malformed topic")

	// ErrMalformedPayload indicates a message payload could not be parsed.
	ErrMalformedPayload = errors.New("ingest: malformed payload")
)
