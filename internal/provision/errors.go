package provision

import "errors"

// Domain errors for the provision package.
var (
	// ErrCredentialNotFound is returned when a username does not exist.
	ErrCredentialNotFound = errors.New("provision: credential not found")

	// ErrCredentialExists is returned when a username is already provisioned.
	ErrCredentialExists = errors.New("provision: credential already exists")

	// ErrAccessDenied is returned when the principal lacks the mqtt admin
	// capability.
	ErrAccessDenied = errors.New("provision: access denied")
)
