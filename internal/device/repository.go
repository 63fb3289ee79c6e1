package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for switch and sensor persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetSwitch retrieves a switch by its unique identifier.
	// Returns ErrSwitchNotFound if the switch does not exist.
	GetSwitch(ctx context.Context, id int64) (*Switch, error)

	// GetSwitchByName retrieves a switch by its unique name.
	// Returns ErrSwitchNotFound if the switch does not exist.
	GetSwitchByName(ctx context.Context, name string) (*Switch, error)

	// ListSwitches retrieves all switches ordered by name.
	ListSwitches(ctx context.Context) ([]Switch, error)

	// CreateSwitch inserts a new switch. An empty role defaults to the
	// switch's own name. Returns ErrDeviceExists on a name collision.
	CreateSwitch(ctx context.Context, sw *Switch) error

	// UpdateSwitch modifies an existing switch.
	// Returns ErrSwitchNotFound if the switch does not exist.
	UpdateSwitch(ctx context.Context, sw *Switch) error

	// DeleteSwitch removes a switch by ID. State history cascades.
	// Returns ErrSwitchNotFound if the switch does not exist.
	DeleteSwitch(ctx context.Context, id int64) error

	// GetSensor retrieves a sensor by its unique identifier.
	// Returns ErrSensorNotFound if the sensor does not exist.
	GetSensor(ctx context.Context, id int64) (*Sensor, error)

	// GetSensorByName retrieves a sensor by its unique name.
	// Returns ErrSensorNotFound if the sensor does not exist.
	GetSensorByName(ctx context.Context, name string) (*Sensor, error)

	// ListSensors retrieves all sensors ordered by name.
	ListSensors(ctx context.Context) ([]Sensor, error)

	// FindSensorsByRole retrieves all sensors whose role matches any of the
	// given roles, case-insensitively.
	FindSensorsByRole(ctx context.Context, roles []string) ([]Sensor, error)

	// CreateSensor inserts a new sensor. An empty role defaults to the
	// sensor's own name. Returns ErrDeviceExists on a name collision.
	CreateSensor(ctx context.Context, s *Sensor) error

	// UpdateSensor modifies an existing sensor.
	// Returns ErrSensorNotFound if the sensor does not exist.
	UpdateSensor(ctx context.Context, s *Sensor) error

	// DeleteSensor removes a sensor by ID.
	// Returns ErrSensorNotFound if the sensor does not exist.
	DeleteSensor(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetSwitch retrieves a switch by its unique identifier.
func (r *SQLiteRepository) GetSwitch(ctx context.Context, id int64) (*Switch, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, role, created_at, updated_at FROM switches WHERE id = ?", id)

	sw, err := scanSwitch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSwitchNotFound
		}
		return nil, fmt.Errorf("querying switch by id: %w", err)
	}
	return sw, nil
}

// GetSwitchByName retrieves a switch by its unique name.
func (r *SQLiteRepository) GetSwitchByName(ctx context.Context, name string) (*Switch, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, role, created_at, updated_at FROM switches WHERE name = ?", name)

	sw, err := scanSwitch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSwitchNotFound
		}
		return nil, fmt.Errorf("querying switch by name: %w", err)
	}
	return sw, nil
}

// ListSwitches retrieves all switches ordered by name.
func (r *SQLiteRepository) ListSwitches(ctx context.Context) ([]Switch, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, role, created_at, updated_at FROM switches ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying switches: %w", err)
	}
	defer rows.Close()

	var switches []Switch
	for rows.Next() {
		sw, err := scanSwitch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning switch: %w", err)
		}
		switches = append(switches, *sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating switches: %w", err)
	}
	return switches, nil
}

// CreateSwitch inserts a new switch.
func (r *SQLiteRepository) CreateSwitch(ctx context.Context, sw *Switch) error {
	if sw.Name == "" {
		return ErrInvalidName
	}
	if sw.Role == "" {
		sw.Role = sw.Name
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO switches (name, role) VALUES (?, ?)", sw.Name, sw.Role)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting switch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading switch id: %w", err)
	}
	sw.ID = id
	return nil
}

// UpdateSwitch modifies an existing switch.
func (r *SQLiteRepository) UpdateSwitch(ctx context.Context, sw *Switch) error {
	if sw.Name == "" {
		return ErrInvalidName
	}
	if sw.Role == "" {
		sw.Role = sw.Name
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE switches SET name = ?, role = ?, updated_at = ? WHERE id = ?",
		sw.Name, sw.Role, nowRFC3339(), sw.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("updating switch: %w", err)
	}
	return requireRowAffected(result, ErrSwitchNotFound)
}

// DeleteSwitch removes a switch by ID.
func (r *SQLiteRepository) DeleteSwitch(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM switches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting switch: %w", err)
	}
	return requireRowAffected(result, ErrSwitchNotFound)
}

// GetSensor retrieves a sensor by its unique identifier.
func (r *SQLiteRepository) GetSensor(ctx context.Context, id int64) (*Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, role, type, parent_name, created_at, updated_at FROM sensors WHERE id = ?", id)

	s, err := scanSensor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor by id: %w", err)
	}
	return s, nil
}

// GetSensorByName retrieves a sensor by its unique name.
func (r *SQLiteRepository) GetSensorByName(ctx context.Context, name string) (*Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, role, type, parent_name, created_at, updated_at FROM sensors WHERE name = ?", name)

	s, err := scanSensor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor by name: %w", err)
	}
	return s, nil
}

// ListSensors retrieves all sensors ordered by name.
func (r *SQLiteRepository) ListSensors(ctx context.Context) ([]Sensor, error) {
	return r.querySensors(ctx,
		"SELECT id, name, role, type, parent_name, created_at, updated_at FROM sensors ORDER BY name")
}

// FindSensorsByRole retrieves all sensors whose role matches any of the given
// roles, case-insensitively.
func (r *SQLiteRepository) FindSensorsByRole(ctx context.Context, roles []string) ([]Sensor, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(roles))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(roles))
	for i, role := range roles {
		args[i] = strings.ToLower(role)
	}

	query := fmt.Sprintf(
		"SELECT id, name, role, type, parent_name, created_at, updated_at FROM sensors WHERE LOWER(role) IN (%s) ORDER BY name",
		placeholders)

	return r.querySensors(ctx, query, args...)
}

// CreateSensor inserts a new sensor.
func (r *SQLiteRepository) CreateSensor(ctx context.Context, s *Sensor) error {
	if s.Name == "" {
		return ErrInvalidName
	}
	if s.Role == "" {
		s.Role = s.Name
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO sensors (name, role, type, parent_name) VALUES (?, ?, ?, ?)",
		s.Name, s.Role, s.Type, nullableString(s.ParentName))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting sensor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading sensor id: %w", err)
	}
	s.ID = id
	return nil
}

// UpdateSensor modifies an existing sensor.
func (r *SQLiteRepository) UpdateSensor(ctx context.Context, s *Sensor) error {
	if s.Name == "" {
		return ErrInvalidName
	}
	if s.Role == "" {
		s.Role = s.Name
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE sensors SET name = ?, role = ?, type = ?, parent_name = ?, updated_at = ? WHERE id = ?",
		s.Name, s.Role, s.Type, nullableString(s.ParentName), nowRFC3339(), s.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("updating sensor: %w", err)
	}
	return requireRowAffected(result, ErrSensorNotFound)
}

// DeleteSensor removes a sensor by ID.
func (r *SQLiteRepository) DeleteSensor(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sensor: %w", err)
	}
	return requireRowAffected(result, ErrSensorNotFound)
}

// querySensors executes a query and returns a slice of sensors.
func (r *SQLiteRepository) querySensors(ctx context.Context, query string, args ...any) ([]Sensor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	var sensors []Sensor
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		sensors = append(sensors, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return sensors, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSwitch scans a row or rows result into a Switch.
func scanSwitch(scanner rowScanner) (*Switch, error) {
	var sw Switch
	var createdAt, updatedAt string

	if err := scanner.Scan(&sw.ID, &sw.Name, &sw.Role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var parseErr error
	sw.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	sw.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &sw, nil
}

// scanSensor scans a row or rows result into a Sensor.
func scanSensor(scanner rowScanner) (*Sensor, error) {
	var s Sensor
	var parentName sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(&s.ID, &s.Name, &s.Role, &s.Type, &parentName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if parentName.Valid {
		s.ParentName = &parentName.String
	}

	var parseErr error
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	s.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &s, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nowRFC3339 returns the current UTC time as an RFC3339 string.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// requireRowAffected converts a zero-rows-affected result into notFound.
func requireRowAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
