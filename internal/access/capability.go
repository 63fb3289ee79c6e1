package access

import "strings"

// ResourceKind names a protected resource category in the capability table.
type ResourceKind string

// Resource kinds recognized by the capability table.
const (
	ResourceSwitch       ResourceKind = "switch"
	ResourceSensor       ResourceKind = "sensor"
	ResourceAutomation   ResourceKind = "automation"
	ResourceMQTT         ResourceKind = "mqtt"
	ResourceProduct      ResourceKind = "product"
	ResourceSubscription ResourceKind = "subscription"
)

// CapabilityTable maps each resource kind to the admin roles that grant
// unconditional access to it. The global admin role short-circuits every
// check regardless of kind.
//
// The table is built once from configuration at startup and read-only
// afterwards, so it is safe for concurrent use.
type CapabilityTable struct {
	adminRole string
	byKind    map[ResourceKind][]string
}

// NewCapabilityTable builds a capability table.
//
// Parameters:
//   - adminRole: The global admin role name (typically "admin")
//   - byKind: Admin roles per resource kind, e.g. "switch" -> ["switch_admin"]
func NewCapabilityTable(adminRole string, byKind map[string][]string) *CapabilityTable {
	table := &CapabilityTable{
		adminRole: strings.ToLower(adminRole),
		byKind:    make(map[ResourceKind][]string, len(byKind)),
	}
	for kind, roles := range byKind {
		lowered := make([]string, len(roles))
		for i, role := range roles {
			lowered[i] = strings.ToLower(role)
		}
		table.byKind[ResourceKind(strings.ToLower(kind))] = lowered
	}
	return table
}

// IsAdmin reports whether any of the principal's roles is an admin-tier role
// for the given resource kind. The global admin role matches every kind.
func (t *CapabilityTable) IsAdmin(roles []string, kind ResourceKind) bool {
	adminRoles := t.byKind[kind]
	for _, role := range roles {
		lowered := strings.ToLower(role)
		if lowered == t.adminRole {
			return true
		}
		for _, admin := range adminRoles {
			if lowered == admin {
				return true
			}
		}
	}
	return false
}

// AdminRolesFor returns the admin roles configured for a resource kind,
// not including the global admin role.
func (t *CapabilityTable) AdminRolesFor(kind ResourceKind) []string {
	return t.byKind[kind]
}
