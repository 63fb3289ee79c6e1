package rules

import "errors"

// Domain errors for the rules package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, rules.ErrRuleNotFound) {
//	    // handle not found case
//	}
var (
	// ErrRuleNotFound is returned when a rule ID does not exist.
	ErrRuleNotFound = errors.New("rules: not found")

	// ErrValidationFailed is returned when a rule submission violates the
	// validation rules. The accompanying ValidationResult lists every
	// violation.
	ErrValidationFailed = errors.New("rules: validation failed")
)
