package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for MQTT credential persistence.
type Repository interface {
	// Create inserts a new credential.
	// Returns ErrCredentialExists if the username is taken.
	Create(ctx context.Context, cred *Credential) error

	// GetByUsername retrieves a credential.
	// Returns ErrCredentialNotFound if the username does not exist.
	GetByUsername(ctx context.Context, username string) (*Credential, error)

	// Delete removes a credential.
	// Returns ErrCredentialNotFound if the username does not exist.
	Delete(ctx context.Context, username string) error

	// List retrieves all credentials ordered by username.
	List(ctx context.Context) ([]Credential, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed credential repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new credential.
func (r *SQLiteRepository) Create(ctx context.Context, cred *Credential) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO mqtt_credentials (username, secret_hash, acl_pattern, device_role) VALUES (?, ?, ?, ?)",
		cred.Username, cred.SecretHash, cred.ACLPattern, cred.DeviceRole)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrCredentialExists
		}
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

// GetByUsername retrieves a credential.
func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*Credential, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT username, secret_hash, acl_pattern, device_role, created_at FROM mqtt_credentials WHERE username = ?",
		username)

	cred, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return cred, nil
}

// Delete removes a credential.
func (r *SQLiteRepository) Delete(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM mqtt_credentials WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// List retrieves all credentials ordered by username.
func (r *SQLiteRepository) List(ctx context.Context) ([]Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT username, secret_hash, acl_pattern, device_role, created_at FROM mqtt_credentials ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return creds, nil
}

// scanCredential scans a row or rows result into a Credential.
func scanCredential(scanner interface{ Scan(dest ...any) error }) (*Credential, error) {
	var cred Credential
	var createdAt string

	if err := scanner.Scan(&cred.Username, &cred.SecretHash, &cred.ACLPattern, &cred.DeviceRole, &createdAt); err != nil {
		return nil, err
	}

	var parseErr error
	cred.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	return &cred, nil
}
