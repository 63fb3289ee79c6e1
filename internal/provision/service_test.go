package provision

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hjemme/hjemme-core/internal/access"
)

// setupTestDB creates an in-memory SQLite database with the credentials table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE mqtt_credentials (
			username TEXT PRIMARY KEY,
			secret_hash TEXT NOT NULL,
			acl_pattern TEXT NOT NULL,
			device_role TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	capabilities := access.NewCapabilityTable("admin", map[string][]string{
		"mqtt": {"mqtt_admin"},
	})
	return NewService(NewSQLiteRepository(setupTestDB(t)), capabilities)
}

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want PHC argon2id format", hash)
	}

	ok, err := VerifySecret("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifySecret() error = %v", err)
	}
	if !ok {
		t.Error("VerifySecret() = false for matching secret")
	}

	ok, err = VerifySecret("wrong secret", hash)
	if err != nil {
		t.Fatalf("VerifySecret() error = %v", err)
	}
	if ok {
		t.Error("VerifySecret() = true for wrong secret")
	}

	if _, err := VerifySecret("x", "not-a-phc-string"); err == nil {
		t.Error("VerifySecret() should reject malformed hashes")
	}
}

func TestService_Provision(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	cred, err := service.Provision(ctx, []string{"mqtt_admin"}, "lamp1", "living_room")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if !strings.HasPrefix(cred.Username, "lamp1-") {
		t.Errorf("username = %q, want lamp1- prefix", cred.Username)
	}
	if cred.ACLPattern != "hjemme/+/lamp1/#" {
		t.Errorf("ACL pattern = %q", cred.ACLPattern)
	}
	if cred.Secret == "" {
		t.Error("plaintext secret missing from provisioning result")
	}
	if cred.SecretHash == cred.Secret {
		t.Error("secret stored in plaintext")
	}

	// The stored hash verifies the one-time secret.
	ok, err := service.Verify(ctx, cred.Username, cred.Secret)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false for freshly provisioned secret")
	}

	ok, err = service.Verify(ctx, cred.Username, "wrong")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() = true for wrong secret")
	}
}

func TestService_ProvisionDenied(t *testing.T) {
	service := newTestService(t)

	_, err := service.Provision(context.Background(), []string{"gateway1"}, "lamp1", "")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Provision() error = %v, want ErrAccessDenied", err)
	}
}

func TestService_ProvisionUniqueUsernames(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.Provision(ctx, []string{"admin"}, "lamp1", "")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	second, err := service.Provision(ctx, []string{"admin"}, "lamp1", "")
	if err != nil {
		t.Fatalf("Provision() second error = %v", err)
	}
	if first.Username == second.Username {
		t.Error("re-provisioning reused the old identity")
	}
}

func TestService_Revoke(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	cred, err := service.Provision(ctx, []string{"mqtt_admin"}, "lamp1", "")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if err := service.Revoke(ctx, []string{"gateway1"}, cred.Username); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Revoke() without capability error = %v, want ErrAccessDenied", err)
	}

	if err := service.Revoke(ctx, []string{"mqtt_admin"}, cred.Username); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := service.Verify(ctx, cred.Username, cred.Secret); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("Verify() after revoke error = %v, want ErrCredentialNotFound", err)
	}

	if err := service.Revoke(ctx, []string{"admin"}, "ghost"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("Revoke() missing credential error = %v, want ErrCredentialNotFound", err)
	}
}
