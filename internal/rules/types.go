package rules

import "time"

// Target types a rule may act on. Switch is currently the only one.
const (
	TargetTypeSwitch = "Switch"
)

// Actions a triggered rule may perform on its target.
const (
	ActionOn  = "on"
	ActionOff = "off"
)

// Logical combinators for multi-condition rules. When absent (single
// condition), evaluation behaves as AND.
const (
	CombinatorAnd = "AND"
	CombinatorOr  = "OR"
)

// PriceSensorID is the sentinel sensor ID referring to the external
// electricity-price feed rather than a sensor row.
const PriceSensorID = -1

// SensorTypePrice marks a condition whose reading comes from the
// electricity-price feed. Price readings may arrive as a bare number or as
// a structured payload with a price or value field.
const SensorTypePrice = "electricity_price"

// Operators allowed in a condition.
var allowedOperators = map[string]struct{}{
	"==": {},
	"=":  {},
	">":  {},
	"<":  {},
	">=": {},
	"<=": {},
	"!=": {},
	"<>": {},
}

// Rule is an automation rule: a boolean expression over sensor conditions
// bound to a target device and an action.
//
// LogicalOperator is nil for single-condition rules and "AND" or "OR"
// otherwise. Conditions are owned exclusively by the rule; deleting the
// rule deletes them.
type Rule struct {
	ID              int64
	TargetType      string
	TargetID        int64
	Action          string
	LogicalOperator *string
	Enabled         bool
	Conditions      []Condition
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Condition is a single comparison against a sensor's latest reading.
//
// SensorID is a positive sensor row ID, or PriceSensorID for the
// electricity-price feed.
type Condition struct {
	ID         int64
	RuleID     int64
	SensorType string
	SensorID   int64
	Operator   string
	Threshold  float64
}

// RuleInput is a rule submission for create or update.
type RuleInput struct {
	TargetType      string
	TargetID        int64
	Action          string
	LogicalOperator string
	Enabled         *bool
	Conditions      []ConditionInput
}

// ConditionInput is a condition within a rule submission.
type ConditionInput struct {
	SensorType string
	SensorID   int64
	Operator   string
	Threshold  float64
}
