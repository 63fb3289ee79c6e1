package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hjemme/hjemme-core/internal/device"
)

// SwitchStore is the target-existence lookup the validator needs.
type SwitchStore interface {
	GetSwitch(ctx context.Context, id int64) (*device.Switch, error)
}

// ValidationResult holds every violation found in a rule submission.
// A submission is valid iff the list is empty.
type ValidationResult struct {
	Errors []string
}

// IsValid reports whether the submission passed validation.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validator checks rule submissions against structural and referential
// integrity rules. Validation never short-circuits: every applicable check
// runs and all violations are returned together.
type Validator struct {
	switches SwitchStore
}

// NewValidator creates a rule validator backed by the given switch store
// for target-existence checks.
func NewValidator(switches SwitchStore) *Validator {
	return &Validator{switches: switches}
}

// ValidateCreate validates a rule creation submission.
func (v *Validator) ValidateCreate(ctx context.Context, in RuleInput) (ValidationResult, error) {
	return v.validate(ctx, in)
}

// ValidateUpdate validates a rule update submission. Updates follow the
// same rules as creates; the condition list fully replaces the old one.
func (v *Validator) ValidateUpdate(ctx context.Context, in RuleInput) (ValidationResult, error) {
	return v.validate(ctx, in)
}

// validate runs the structural checks first and the data-dependent target
// lookup last. The returned error reports store failures only, never
// validation outcomes.
func (v *Validator) validate(ctx context.Context, in RuleInput) (ValidationResult, error) {
	var result ValidationResult

	if in.TargetType == "" {
		result.addf("Target type is required.")
	}
	if in.TargetID <= 0 {
		result.addf("Target ID must be a positive integer.")
	}

	switch {
	case in.Action == "":
		result.addf("Action is required.")
	case !strings.EqualFold(in.Action, ActionOn) && !strings.EqualFold(in.Action, ActionOff):
		result.addf("Action must be %q or %q.", ActionOn, ActionOff)
	}

	if len(in.Conditions) == 0 {
		result.addf("At least one condition is required.")
	} else {
		if len(in.Conditions) > 1 && !validCombinator(in.LogicalOperator) {
			result.addf("Logical operator must be %q or %q when more than one condition is present.",
				CombinatorAnd, CombinatorOr)
		}
		for i, cond := range in.Conditions {
			validateCondition(&result, i, cond)
		}
	}

	// Target existence is the only data-dependent check. It runs only when
	// the structural target fields are well-formed, and its violations
	// accumulate like any other.
	if in.TargetType != "" && in.TargetID > 0 {
		exists, err := v.targetExists(ctx, in.TargetType, in.TargetID)
		if err != nil {
			return ValidationResult{}, err
		}
		if !exists {
			result.addf("Target %s with ID %d does not exist.", in.TargetType, in.TargetID)
		}
	}

	return result, nil
}

// validateCondition checks a single condition's fields. Thresholds are
// unconstrained.
func validateCondition(result *ValidationResult, index int, cond ConditionInput) {
	position := index + 1

	if cond.SensorType == "" {
		result.addf("Condition %d: sensor type is required.", position)
	}
	if cond.SensorID == 0 || cond.SensorID < PriceSensorID {
		result.addf("Condition %d: sensor ID must be %d or a positive integer.", position, PriceSensorID)
	}
	switch {
	case cond.Operator == "":
		result.addf("Condition %d: operator is required.", position)
	default:
		if _, ok := allowedOperators[cond.Operator]; !ok {
			result.addf("Condition %d: operator %q is not supported.", position, cond.Operator)
		}
	}
}

// targetExists resolves the target row. Only Switch targets are supported;
// any other target type is treated as non-existent.
func (v *Validator) targetExists(ctx context.Context, targetType string, targetID int64) (bool, error) {
	if targetType != TargetTypeSwitch {
		return false, nil
	}

	_, err := v.switches.GetSwitch(ctx, targetID)
	if err != nil {
		if errors.Is(err, device.ErrSwitchNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolving rule target: %w", err)
	}
	return true, nil
}

// validCombinator reports whether the logical operator is AND or OR,
// case-insensitively.
func validCombinator(op string) bool {
	return strings.EqualFold(op, CombinatorAnd) || strings.EqualFold(op, CombinatorOr)
}

// normalizeCombinator uppercases a valid combinator, returning nil for
// single-condition rules where no combinator is required.
func normalizeCombinator(op string, conditionCount int) *string {
	if conditionCount <= 1 && op == "" {
		return nil
	}
	if op == "" {
		return nil
	}
	normalized := strings.ToUpper(op)
	return &normalized
}
