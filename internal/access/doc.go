// Package access implements discovery-based device authorization.
//
// A principal is a set of role names. Whether a principal may act on a
// device is decided in three tiers:
//
//  1. Admin tier: the global admin role, or a resource-specific admin role
//     from the capability table (switch_admin, sensor_admin, ...), grants
//     unconditionally.
//  2. Direct: the principal holds the device's own role string
//     (case-insensitive).
//  3. Transitive discovery: the principal holds the role of some sensor
//     whose parent gateway has a discovery edge to the device. Controlling
//     a gateway's sensor means controlling what the gateway found.
//
// No matching tier means denial. Denial is a boolean outcome, never an
// error; errors only report store failures.
//
// For filtering many devices at once, ScopeFor precomputes the principal's
// discovery reachability with a fixed number of queries; Scope.Allows then
// answers per device without further store access.
//
// Roles come from a RoleProvider. The JWT provider validates HS256 bearer
// tokens and reads the roles claim.
package access
