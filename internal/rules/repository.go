package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for rule persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Get retrieves a rule with its conditions.
	// Returns ErrRuleNotFound if the rule does not exist.
	Get(ctx context.Context, id int64) (*Rule, error)

	// List retrieves all rules with their conditions.
	List(ctx context.Context) ([]Rule, error)

	// ListEnabledBySensor retrieves all enabled rules that have at least
	// one condition referencing the given sensor ID.
	ListEnabledBySensor(ctx context.Context, sensorID int64) ([]Rule, error)

	// Create inserts a rule and its conditions atomically.
	Create(ctx context.Context, rule *Rule) error

	// Update modifies a rule and replaces its entire condition set
	// atomically. Either all old conditions are removed and all new ones
	// inserted, or nothing changes.
	// Returns ErrRuleNotFound if the rule does not exist.
	Update(ctx context.Context, rule *Rule) error

	// Delete removes a rule. Conditions cascade.
	// Returns ErrRuleNotFound if the rule does not exist.
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed rule repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves a rule with its conditions.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Rule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, target_type, target_id, action, logical_operator, enabled, created_at, updated_at
		FROM automation_rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("querying rule: %w", err)
	}

	conditions, err := r.loadConditions(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	rule.Conditions = conditions[id]
	return rule, nil
}

// List retrieves all rules with their conditions.
func (r *SQLiteRepository) List(ctx context.Context) ([]Rule, error) {
	return r.queryRules(ctx,
		`SELECT id, target_type, target_id, action, logical_operator, enabled, created_at, updated_at
		FROM automation_rules ORDER BY id`)
}

// ListEnabledBySensor retrieves all enabled rules referencing the sensor.
func (r *SQLiteRepository) ListEnabledBySensor(ctx context.Context, sensorID int64) ([]Rule, error) {
	return r.queryRules(ctx,
		`SELECT DISTINCT r.id, r.target_type, r.target_id, r.action, r.logical_operator, r.enabled, r.created_at, r.updated_at
		FROM automation_rules r
		JOIN automation_conditions c ON c.rule_id = r.id
		WHERE r.enabled = 1 AND c.sensor_id = ?
		ORDER BY r.id`, sensorID)
}

// Create inserts a rule and its conditions in one transaction.
func (r *SQLiteRepository) Create(ctx context.Context, rule *Rule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx,
		"INSERT INTO automation_rules (target_type, target_id, action, logical_operator, enabled) VALUES (?, ?, ?, ?, ?)",
		rule.TargetType, rule.TargetID, rule.Action, nullableCombinator(rule.LogicalOperator), boolToInt(rule.Enabled))
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading rule id: %w", err)
	}
	rule.ID = id

	if err := insertConditions(ctx, tx, rule.ID, rule.Conditions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rule: %w", err)
	}
	for i := range rule.Conditions {
		rule.Conditions[i].RuleID = rule.ID
	}
	return nil
}

// Update modifies a rule and replaces its entire condition set atomically.
func (r *SQLiteRepository) Update(ctx context.Context, rule *Rule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx,
		"UPDATE automation_rules SET target_type = ?, target_id = ?, action = ?, logical_operator = ?, enabled = ?, updated_at = ? WHERE id = ?",
		rule.TargetType, rule.TargetID, rule.Action, nullableCombinator(rule.LogicalOperator),
		boolToInt(rule.Enabled), time.Now().UTC().Format(time.RFC3339), rule.ID)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}

	// Replace-all: the new condition set fully supersedes the old one.
	if _, err := tx.ExecContext(ctx, "DELETE FROM automation_conditions WHERE rule_id = ?", rule.ID); err != nil {
		return fmt.Errorf("deleting old conditions: %w", err)
	}
	if err := insertConditions(ctx, tx, rule.ID, rule.Conditions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rule update: %w", err)
	}
	for i := range rule.Conditions {
		rule.Conditions[i].RuleID = rule.ID
	}
	return nil
}

// Delete removes a rule. Conditions cascade at the schema level.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM automation_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// insertConditions inserts a rule's conditions preserving submission order.
func insertConditions(ctx context.Context, tx *sql.Tx, ruleID int64, conditions []Condition) error {
	for i := range conditions {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO automation_conditions (rule_id, sort_order, sensor_type, sensor_id, operator, threshold) VALUES (?, ?, ?, ?, ?, ?)",
			ruleID, i, conditions[i].SensorType, conditions[i].SensorID, conditions[i].Operator, conditions[i].Threshold)
		if err != nil {
			return fmt.Errorf("inserting condition %d: %w", i+1, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading condition id: %w", err)
		}
		conditions[i].ID = id
	}
	return nil
}

// queryRules executes a rule query and attaches conditions in one batch.
func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var result []Rule
	var ids []int64
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		result = append(result, *rule)
		ids = append(ids, rule.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	conditions, err := r.loadConditions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Conditions = conditions[result[i].ID]
	}
	return result, nil
}

// loadConditions fetches the conditions for the given rule IDs, keyed by
// rule ID and ordered by sort order.
func (r *SQLiteRepository) loadConditions(ctx context.Context, ruleIDs []int64) (map[int64][]Condition, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ruleIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ruleIDs))
	for i, id := range ruleIDs {
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT id, rule_id, sensor_type, sensor_id, operator, threshold
		FROM automation_conditions
		WHERE rule_id IN (%s)
		ORDER BY rule_id, sort_order`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	defer rows.Close()

	conditions := make(map[int64][]Condition)
	for rows.Next() {
		var c Condition
		if err := rows.Scan(&c.ID, &c.RuleID, &c.SensorType, &c.SensorID, &c.Operator, &c.Threshold); err != nil {
			return nil, fmt.Errorf("scanning condition: %w", err)
		}
		conditions[c.RuleID] = append(conditions[c.RuleID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conditions: %w", err)
	}
	return conditions, nil
}

// scanRule scans a row or rows result into a Rule without conditions.
func scanRule(scanner interface{ Scan(dest ...any) error }) (*Rule, error) {
	var rule Rule
	var combinator sql.NullString
	var enabled int
	var createdAt, updatedAt string

	err := scanner.Scan(&rule.ID, &rule.TargetType, &rule.TargetID, &rule.Action,
		&combinator, &enabled, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if combinator.Valid {
		rule.LogicalOperator = &combinator.String
	}
	rule.Enabled = enabled != 0

	var parseErr error
	rule.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	rule.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &rule, nil
}

// nullableCombinator returns a sql.NullString for the optional combinator.
func nullableCombinator(op *string) sql.NullString {
	if op == nil || *op == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *op, Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
