package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// StateHistoryRepository defines the interface for switch state history.
//
// Entries are append-only. The rule dispatcher and the switch command path
// both write here; nothing ever updates a row in place.
type StateHistoryRepository interface {
	// RecordState appends a new state entry for a switch.
	RecordState(ctx context.Context, switchID int64, value string) error

	// LatestState returns the most recent state entry for a switch.
	// Returns ErrSwitchNotFound if the switch has no recorded state.
	LatestState(ctx context.Context, switchID int64) (*SwitchState, error)

	// History returns recent state entries for a switch, newest first.
	History(ctx context.Context, switchID int64, limit int) ([]SwitchState, error)
}

// SQLiteStateHistoryRepository implements StateHistoryRepository using SQLite.
type SQLiteStateHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteStateHistoryRepository creates a new SQLite state history repository.
func NewSQLiteStateHistoryRepository(db *sql.DB) *SQLiteStateHistoryRepository {
	return &SQLiteStateHistoryRepository{db: db}
}

// RecordState appends a new state entry for a switch.
func (r *SQLiteStateHistoryRepository) RecordState(ctx context.Context, switchID int64, value string) error {
	if value == "" {
		return fmt.Errorf("state value is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO switch_states (switch_id, value) VALUES (?, ?)",
		switchID, value)
	if err != nil {
		return fmt.Errorf("inserting switch state: %w", err)
	}
	return nil
}

// LatestState returns the most recent state entry for a switch.
func (r *SQLiteStateHistoryRepository) LatestState(ctx context.Context, switchID int64) (*SwitchState, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, switch_id, value, recorded_at
		FROM switch_states
		WHERE switch_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`, switchID)

	state, err := scanSwitchState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSwitchNotFound
		}
		return nil, fmt.Errorf("querying latest switch state: %w", err)
	}
	return state, nil
}

// History returns recent state entries for a switch, newest first.
func (r *SQLiteStateHistoryRepository) History(ctx context.Context, switchID int64, limit int) ([]SwitchState, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, switch_id, value, recorded_at
		FROM switch_states
		WHERE switch_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, switchID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying switch state history: %w", err)
	}
	defer rows.Close()

	var states []SwitchState
	for rows.Next() {
		state, err := scanSwitchState(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning switch state: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating switch states: %w", err)
	}
	return states, nil
}

// scanSwitchState scans a row or rows result into a SwitchState.
func scanSwitchState(scanner rowScanner) (*SwitchState, error) {
	var state SwitchState
	var recordedAt string

	if err := scanner.Scan(&state.ID, &state.SwitchID, &state.Value, &recordedAt); err != nil {
		return nil, err
	}

	var parseErr error
	state.RecordedAt, parseErr = time.Parse(time.RFC3339, recordedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing recorded_at: %w", parseErr)
	}
	return &state, nil
}
