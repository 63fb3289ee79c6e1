// Package provision manages MQTT broker credentials for devices.
//
// Each device gets a unique username, a 256-bit random secret stored only
// as an Argon2id hash, and an ACL pattern confining it to its own topic
// subtree. The plaintext secret is returned once at provisioning time.
//
// Provisioning and revocation are gated on the mqtt admin capability.
package provision
