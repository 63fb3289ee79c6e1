package access

import "errors"

// Domain errors for the access package.
var (
	// ErrInvalidToken is returned when a bearer token fails validation.
	ErrInvalidToken = errors.New("access: invalid token")
)
