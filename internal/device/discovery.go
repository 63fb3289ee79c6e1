package device

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DiscoveryRepository defines the interface for discovery edge persistence.
//
// Discovery edges are what transitive access is derived from: a principal
// who controls a gateway reaches everything that gateway has discovered.
type DiscoveryRepository interface {
	// RecordDiscovery inserts a new discovery edge.
	// Returns ErrDuplicateDiscovery if the (discoveredBy, target, type)
	// triple already exists; the original row is left untouched.
	RecordDiscovery(ctx context.Context, edge *DiscoveredDevice) error

	// AnyDiscoveredDevice reports whether any of the given discoverers has
	// a discovery edge to the target, regardless of edge type.
	AnyDiscoveredDevice(ctx context.Context, discoveredBy []string, target string) (bool, error)

	// ListDiscoveredTargets returns the distinct target names discovered by
	// any of the given discoverers. Used for batched access filtering.
	ListDiscoveredTargets(ctx context.Context, discoveredBy []string) ([]string, error)

	// ListDiscoveriesByTarget returns all edges pointing at the target.
	ListDiscoveriesByTarget(ctx context.Context, target string) ([]DiscoveredDevice, error)
}

// SQLiteDiscoveryRepository implements DiscoveryRepository using SQLite.
type SQLiteDiscoveryRepository struct {
	db *sql.DB
}

// NewSQLiteDiscoveryRepository creates a new SQLite discovery repository.
func NewSQLiteDiscoveryRepository(db *sql.DB) *SQLiteDiscoveryRepository {
	return &SQLiteDiscoveryRepository{db: db}
}

// RecordDiscovery inserts a new discovery edge.
func (r *SQLiteDiscoveryRepository) RecordDiscovery(ctx context.Context, edge *DiscoveredDevice) error {
	if edge.DiscoveredBy == "" || edge.Target == "" {
		return ErrInvalidName
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO discovered_devices (discovered_by, target, type) VALUES (?, ?, ?)",
		edge.DiscoveredBy, edge.Target, string(edge.Type))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateDiscovery
		}
		return fmt.Errorf("inserting discovery edge: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading discovery edge id: %w", err)
	}
	edge.ID = id
	return nil
}

// AnyDiscoveredDevice reports whether any of the given discoverers has a
// discovery edge to the target.
func (r *SQLiteDiscoveryRepository) AnyDiscoveredDevice(ctx context.Context, discoveredBy []string, target string) (bool, error) {
	if len(discoveredBy) == 0 {
		return false, nil
	}

	placeholders := strings.Repeat("?,", len(discoveredBy))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(discoveredBy)+1)
	for _, by := range discoveredBy {
		args = append(args, by)
	}
	args = append(args, target)

	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM discovered_devices WHERE discovered_by IN (%s) AND target = ?",
		placeholders)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("checking discovery edge: %w", err)
	}
	return count > 0, nil
}

// ListDiscoveredTargets returns the distinct target names discovered by any
// of the given discoverers.
func (r *SQLiteDiscoveryRepository) ListDiscoveredTargets(ctx context.Context, discoveredBy []string) ([]string, error) {
	if len(discoveredBy) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(discoveredBy))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(discoveredBy))
	for i, by := range discoveredBy {
		args[i] = by
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT target FROM discovered_devices WHERE discovered_by IN (%s)",
		placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying discovered targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("scanning target: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating targets: %w", err)
	}
	return targets, nil
}

// ListDiscoveriesByTarget returns all edges pointing at the target.
func (r *SQLiteDiscoveryRepository) ListDiscoveriesByTarget(ctx context.Context, target string) ([]DiscoveredDevice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, discovered_by, target, type, created_at FROM discovered_devices WHERE target = ? ORDER BY created_at",
		target)
	if err != nil {
		return nil, fmt.Errorf("querying discovery edges: %w", err)
	}
	defer rows.Close()

	var edges []DiscoveredDevice
	for rows.Next() {
		var edge DiscoveredDevice
		var edgeType, createdAt string
		if err := rows.Scan(&edge.ID, &edge.DiscoveredBy, &edge.Target, &edgeType, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning discovery edge: %w", err)
		}
		edge.Type = Kind(edgeType)
		edge.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating discovery edges: %w", err)
	}
	return edges, nil
}
