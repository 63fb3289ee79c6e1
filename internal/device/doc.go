// Package device manages switches, sensors, and the discovery graph.
//
// Devices are identified by a globally unique name and a stable integer ID.
// Each device carries a role string used for direct role-based access; the
// role defaults to the device's own name when not set at creation.
//
// The discovery graph records directed edges: a gateway or hub that has
// observed another device. These edges are the basis of transitive access
// (see the access package): a principal who holds the role of a sensor
// reaches everything that sensor's parent has discovered. The
// (discovered_by, target, type) triple is unique; re-discovery surfaces as
// ErrDuplicateDiscovery so the original row keeps its first-discovery
// timestamp.
//
// Switch state history is append-only, written by the rule dispatcher and
// the switch command path.
//
// Persistence uses the repository pattern: Repository, DiscoveryRepository,
// and StateHistoryRepository interfaces with SQLite implementations.
package device
