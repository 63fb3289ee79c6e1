package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hjemme/hjemme-core/internal/access"
	"github.com/hjemme/hjemme-core/internal/device"
)

// Logger defines the logging interface used by the rules package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// AccessResolver is the interface the service needs from the access package.
type AccessResolver interface {
	ScopeFor(ctx context.Context, roles []string, kind access.ResourceKind) (*access.Scope, error)
	HasRuleTargetAccess(ctx context.Context, roles []string, targetID int64) (bool, error)
}

// Service is the rule write and query surface consumed by the API layer.
//
// All writes pass through the validator; a submission that fails validation
// is never persisted. Reads are filtered through the access resolver per
// rule's resolved target.
type Service struct {
	repo      Repository
	validator *Validator
	resolver  AccessResolver
	switches  SwitchStore
	logger    Logger
}

// NewService creates a rule service.
func NewService(repo Repository, validator *Validator, resolver AccessResolver, switches SwitchStore) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		resolver:  resolver,
		switches:  switches,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// CreateRule validates and persists a new rule.
//
// Returns the persisted rule on success, or the validation result with
// ErrValidationFailed when the submission is rejected. Store failures are
// returned as errors.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (*Rule, ValidationResult, error) {
	result, err := s.validator.ValidateCreate(ctx, in)
	if err != nil {
		return nil, ValidationResult{}, err
	}
	if !result.IsValid() {
		return nil, result, ErrValidationFailed
	}

	rule := ruleFromInput(in)
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, ValidationResult{}, fmt.Errorf("creating rule: %w", err)
	}

	s.logger.Info("automation rule created",
		"rule_id", rule.ID,
		"target_type", rule.TargetType,
		"target_id", rule.TargetID,
		"conditions", len(rule.Conditions))
	return rule, result, nil
}

// UpdateRule validates and persists changes to an existing rule. The
// submitted condition list fully replaces the old one.
//
// Returns ErrRuleNotFound if the rule does not exist, or the validation
// result with ErrValidationFailed when the submission is rejected.
func (s *Service) UpdateRule(ctx context.Context, id int64, in RuleInput) (*Rule, ValidationResult, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, ValidationResult{}, err
	}

	result, err := s.validator.ValidateUpdate(ctx, in)
	if err != nil {
		return nil, ValidationResult{}, err
	}
	if !result.IsValid() {
		return nil, result, ErrValidationFailed
	}

	rule := ruleFromInput(in)
	rule.ID = existing.ID
	if in.Enabled == nil {
		rule.Enabled = existing.Enabled
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, ValidationResult{}, fmt.Errorf("updating rule: %w", err)
	}

	s.logger.Info("automation rule updated", "rule_id", rule.ID, "conditions", len(rule.Conditions))
	return rule, result, nil
}

// GetRule retrieves a rule the principal may act on.
//
// Returns ErrRuleNotFound for both a missing rule and an inaccessible one;
// existence is not leaked to principals without access.
func (s *Service) GetRule(ctx context.Context, roles []string, id int64) (*Rule, error) {
	rule, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	granted, err := s.resolver.HasRuleTargetAccess(ctx, roles, rule.TargetID)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// DeleteRule removes a rule the principal may act on.
func (s *Service) DeleteRule(ctx context.Context, roles []string, id int64) error {
	if _, err := s.GetRule(ctx, roles, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("automation rule deleted", "rule_id", id)
	return nil
}

// ListAccessibleRules returns every rule whose resolved target the
// principal may act on.
//
// Access is computed once as a batched scope rather than one discovery
// query per rule. A rule whose target cannot be resolved is omitted.
func (s *Service) ListAccessibleRules(ctx context.Context, roles []string) ([]Rule, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	scope, err := s.resolver.ScopeFor(ctx, roles, access.ResourceAutomation)
	if err != nil {
		return nil, err
	}

	targets, err := s.resolveTargets(ctx, all)
	if err != nil {
		return nil, err
	}

	var accessible []Rule
	for _, rule := range all {
		sw, ok := targets[rule.TargetID]
		if !ok {
			continue
		}
		if scope.Allows(sw.Name, sw.Role) {
			accessible = append(accessible, rule)
		}
	}
	return accessible, nil
}

// resolveTargets fetches each distinct target switch once. Missing targets
// are omitted rather than treated as errors.
func (s *Service) resolveTargets(ctx context.Context, all []Rule) (map[int64]*device.Switch, error) {
	targets := make(map[int64]*device.Switch)
	for _, rule := range all {
		if rule.TargetType != TargetTypeSwitch {
			continue
		}
		if _, seen := targets[rule.TargetID]; seen {
			continue
		}
		sw, err := s.switches.GetSwitch(ctx, rule.TargetID)
		if err != nil {
			if errors.Is(err, device.ErrSwitchNotFound) {
				s.logger.Warn("rule target no longer exists", "target_id", rule.TargetID)
				continue
			}
			return nil, fmt.Errorf("resolving rule target: %w", err)
		}
		targets[rule.TargetID] = sw
	}
	return targets, nil
}

// ruleFromInput builds a normalized Rule from a validated submission:
// action lowercased, combinator uppercased and nil for single-condition
// rules, enabled defaulting to true.
func ruleFromInput(in RuleInput) *Rule {
	rule := &Rule{
		TargetType:      in.TargetType,
		TargetID:        in.TargetID,
		Action:          strings.ToLower(in.Action),
		LogicalOperator: normalizeCombinator(in.LogicalOperator, len(in.Conditions)),
		Enabled:         true,
	}
	if in.Enabled != nil {
		rule.Enabled = *in.Enabled
	}

	rule.Conditions = make([]Condition, len(in.Conditions))
	for i, c := range in.Conditions {
		rule.Conditions[i] = Condition{
			SensorType: c.SensorType,
			SensorID:   c.SensorID,
			Operator:   c.Operator,
			Threshold:  c.Threshold,
		}
	}
	return rule
}
