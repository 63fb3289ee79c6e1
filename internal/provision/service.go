package provision

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/hjemme/hjemme-core/internal/access"
)

// secretBytes is the entropy of a generated credential secret (256-bit).
const secretBytes = 32

// Service provisions broker credentials for devices.
//
// Provisioning is admin-gated through the capability table: the principal
// needs the mqtt admin role (or the global admin role).
type Service struct {
	repo         Repository
	capabilities *access.CapabilityTable
}

// NewService creates a provisioning service.
func NewService(repo Repository, capabilities *access.CapabilityTable) *Service {
	return &Service{repo: repo, capabilities: capabilities}
}

// Provision creates a broker credential for a device.
//
// The username is derived from the device name plus a random suffix so a
// re-provisioned device never reuses an old identity. The plaintext secret
// is returned once and only its hash is stored. The ACL pattern confines
// the credential to the device's own topic subtree.
//
// Returns ErrAccessDenied if the principal lacks the mqtt admin capability.
func (s *Service) Provision(ctx context.Context, roles []string, deviceName, deviceRole string) (*ProvisionedCredential, error) {
	if !s.capabilities.IsAdmin(roles, access.ResourceMQTT) {
		return nil, ErrAccessDenied
	}
	if deviceName == "" {
		return nil, fmt.Errorf("device name is required")
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	hash, err := HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hashing secret: %w", err)
	}

	cred := &Credential{
		Username:   fmt.Sprintf("%s-%s", deviceName, uuid.NewString()[:8]),
		SecretHash: hash,
		ACLPattern: fmt.Sprintf("hjemme/+/%s/#", deviceName),
		DeviceRole: deviceRole,
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, err
	}

	return &ProvisionedCredential{Credential: *cred, Secret: secret}, nil
}

// Revoke removes a device credential.
//
// Returns ErrAccessDenied if the principal lacks the mqtt admin capability.
func (s *Service) Revoke(ctx context.Context, roles []string, username string) error {
	if !s.capabilities.IsAdmin(roles, access.ResourceMQTT) {
		return ErrAccessDenied
	}
	return s.repo.Delete(ctx, username)
}

// Verify checks a username/secret pair against the stored hash.
func (s *Service) Verify(ctx context.Context, username, secret string) (bool, error) {
	cred, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return VerifySecret(secret, cred.SecretHash)
}

// generateSecret returns a cryptographically random hex secret.
func generateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
