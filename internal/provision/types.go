package provision

import "time"

// Credential is one provisioned MQTT identity.
//
// SecretHash is the Argon2id PHC hash of the secret; the plaintext is
// returned exactly once, at provisioning time.
type Credential struct {
	Username   string
	SecretHash string
	ACLPattern string
	DeviceRole string
	CreatedAt  time.Time
}

// ProvisionedCredential pairs a stored credential with its one-time
// plaintext secret.
type ProvisionedCredential struct {
	Credential
	Secret string
}
