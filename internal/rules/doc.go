// Package rules implements automation rules: their data model, validation,
// persistence, condition evaluation, and action dispatch.
//
// A rule binds an ordered list of sensor conditions to a target switch and
// an action. Single-condition rules need no logical operator; rules with
// more than one condition combine them with AND or OR.
//
// Validation accumulates every violation into one ValidationResult rather
// than stopping at the first. The only data-dependent check, target
// existence, runs after the structural ones.
//
// Evaluation is fail-closed: a condition whose sensor has no known reading,
// or whose reading does not parse, is false. Equality operators use an
// epsilon tolerance of 0.001 to absorb floating-point round-trip noise.
// The electricity-price pseudo-sensor (ID -1) accepts structured payloads
// with a price or value field in addition to bare numbers.
//
// The Engine fans each sensor reading out to the rules referencing that
// sensor, evaluating each rule in its own goroutine. Triggered rules
// dispatch through the Dispatcher, which records the new switch state and
// publishes the command; dispatch failures are logged and absorbed, never
// raised to the evaluation caller.
package rules
