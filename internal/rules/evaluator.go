package rules

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Epsilon is the tolerance used for equality and inequality operators, to
// absorb floating-point round-trip noise in sensor payloads.
const Epsilon = 0.001

// EvaluateRule computes a rule's trigger value from the latest raw readings,
// keyed by sensor ID.
//
// A condition whose sensor has no reading, or whose reading cannot be
// parsed, evaluates false. An automation that cannot be evaluated never
// fires.
//
// With combinator "OR" the rule fires iff any condition is true; otherwise,
// including the single-condition case, it fires iff all conditions are true.
func EvaluateRule(rule *Rule, readings map[int64]string) bool {
	if len(rule.Conditions) == 0 {
		return false
	}

	results := make([]bool, len(rule.Conditions))
	for i := range rule.Conditions {
		raw, ok := readings[rule.Conditions[i].SensorID]
		results[i] = ok && EvaluateCondition(&rule.Conditions[i], raw)
	}

	if rule.LogicalOperator != nil && strings.EqualFold(*rule.LogicalOperator, CombinatorOr) {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}

	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

// EvaluateCondition computes a single condition's truth value against a raw
// reading. Parse failures and unknown operators evaluate false.
func EvaluateCondition(cond *Condition, raw string) bool {
	value, ok := resolveSensorValue(cond.SensorType, raw)
	if !ok {
		return false
	}
	return compare(cond.Operator, value, cond.Threshold)
}

// pricePayload is the structured shape price readings may arrive in.
type pricePayload struct {
	Price *float64 `json:"price"`
	Value *float64 `json:"value"`
}

// resolveSensorValue extracts a numeric value from a raw reading.
//
// Electricity-price readings try a direct numeric parse first, then a
// structured payload with a price field, then a value field. Everything
// else must parse as a plain number.
func resolveSensorValue(sensorType, raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)

	if value, err := strconv.ParseFloat(raw, 64); err == nil {
		return value, true
	}

	if sensorType != SensorTypePrice {
		return 0, false
	}

	var payload pricePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return 0, false
	}
	if payload.Price != nil {
		return *payload.Price, true
	}
	if payload.Value != nil {
		return *payload.Value, true
	}
	return 0, false
}

// compare applies the condition operator. Equality and inequality use the
// epsilon tolerance; ordering operators are exact.
func compare(operator string, value, threshold float64) bool {
	switch operator {
	case "==", "=":
		return math.Abs(value-threshold) < Epsilon
	case "!=", "<>":
		return math.Abs(value-threshold) >= Epsilon
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		return false
	}
}
