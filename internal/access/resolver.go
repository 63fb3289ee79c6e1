package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hjemme/hjemme-core/internal/device"
)

// SwitchStore resolves switches for access checks on rule targets.
type SwitchStore interface {
	GetSwitch(ctx context.Context, id int64) (*device.Switch, error)
}

// SensorStore resolves the sensors a principal controls directly.
type SensorStore interface {
	FindSensorsByRole(ctx context.Context, roles []string) ([]device.Sensor, error)
}

// DiscoveryStore answers discovery-graph reachability questions.
type DiscoveryStore interface {
	AnyDiscoveredDevice(ctx context.Context, discoveredBy []string, target string) (bool, error)
	ListDiscoveredTargets(ctx context.Context, discoveredBy []string) ([]string, error)
}

// Resolver decides whether a principal may act on a device.
//
// The decision runs three tiers in order: admin-tier roles from the
// capability table, direct role match against the device's own role, and
// transitive discovery through the principal's sensors. A principal who
// controls a sensor reaches everything that sensor's parent gateway has
// discovered.
//
// Denial is a boolean outcome, not an error. Errors are reserved for store
// failures; callers should treat them as denial at the boundary.
type Resolver struct {
	capabilities *CapabilityTable
	switches     SwitchStore
	sensors      SensorStore
	discoveries  DiscoveryStore
}

// NewResolver creates an access resolver.
func NewResolver(capabilities *CapabilityTable, switches SwitchStore, sensors SensorStore, discoveries DiscoveryStore) *Resolver {
	return &Resolver{
		capabilities: capabilities,
		switches:     switches,
		sensors:      sensors,
		discoveries:  discoveries,
	}
}

// HasAccess reports whether the principal may act on the named device.
//
// Parameters:
//   - roles: The principal's role names
//   - kind: Resource kind, selects which admin-tier roles apply
//   - deviceName: The device's globally unique name
//   - deviceRole: The device's own role string
func (r *Resolver) HasAccess(ctx context.Context, roles []string, kind ResourceKind, deviceName, deviceRole string) (bool, error) {
	if r.capabilities.IsAdmin(roles, kind) {
		return true, nil
	}

	for _, role := range roles {
		if strings.EqualFold(role, deviceRole) {
			return true, nil
		}
	}

	parents, err := r.accessibleParents(ctx, roles)
	if err != nil {
		return false, err
	}
	if len(parents) == 0 {
		return false, nil
	}

	reachable, err := r.discoveries.AnyDiscoveredDevice(ctx, parents, deviceName)
	if err != nil {
		return false, fmt.Errorf("checking discovery access: %w", err)
	}
	return reachable, nil
}

// HasSwitchAccess reports whether the principal may act on the switch.
func (r *Resolver) HasSwitchAccess(ctx context.Context, roles []string, sw *device.Switch) (bool, error) {
	return r.HasAccess(ctx, roles, ResourceSwitch, sw.Name, sw.Role)
}

// HasSensorAccess reports whether the principal may act on the sensor.
func (r *Resolver) HasSensorAccess(ctx context.Context, roles []string, s *device.Sensor) (bool, error) {
	return r.HasAccess(ctx, roles, ResourceSensor, s.Name, s.Role)
}

// HasRuleTargetAccess reports whether the principal may act on an automation
// rule targeting the given switch ID.
//
// A target that cannot be resolved is a denial, not an error; callers are
// expected to have validated target existence at write time.
func (r *Resolver) HasRuleTargetAccess(ctx context.Context, roles []string, targetID int64) (bool, error) {
	sw, err := r.switches.GetSwitch(ctx, targetID)
	if err != nil {
		if errors.Is(err, device.ErrSwitchNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolving rule target: %w", err)
	}
	return r.HasAccess(ctx, roles, ResourceAutomation, sw.Name, sw.Role)
}

// Scope is a precomputed access snapshot for one principal, used to filter
// many devices with a fixed number of store queries instead of one discovery
// query per device.
type Scope struct {
	admin   bool
	roles   map[string]struct{}
	targets map[string]struct{}
}

// ScopeFor computes the principal's access scope for a resource kind.
//
// It batches the two store lookups the per-device check would otherwise
// repeat: the principal's sensors and the targets their parents have
// discovered.
func (r *Resolver) ScopeFor(ctx context.Context, roles []string, kind ResourceKind) (*Scope, error) {
	scope := &Scope{
		admin: r.capabilities.IsAdmin(roles, kind),
		roles: make(map[string]struct{}, len(roles)),
	}
	for _, role := range roles {
		scope.roles[strings.ToLower(role)] = struct{}{}
	}
	if scope.admin {
		return scope, nil
	}

	parents, err := r.accessibleParents(ctx, roles)
	if err != nil {
		return nil, err
	}

	scope.targets = make(map[string]struct{})
	if len(parents) > 0 {
		targets, err := r.discoveries.ListDiscoveredTargets(ctx, parents)
		if err != nil {
			return nil, fmt.Errorf("listing discovered targets: %w", err)
		}
		for _, target := range targets {
			scope.targets[target] = struct{}{}
		}
	}
	return scope, nil
}

// Allows reports whether the scope grants access to the named device.
func (s *Scope) Allows(deviceName, deviceRole string) bool {
	if s.admin {
		return true
	}
	if _, ok := s.roles[strings.ToLower(deviceRole)]; ok {
		return true
	}
	_, ok := s.targets[deviceName]
	return ok
}

// accessibleParents returns the distinct parent names of every sensor whose
// role the principal holds. These are the discovery-graph entry points.
func (r *Resolver) accessibleParents(ctx context.Context, roles []string) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	sensors, err := r.sensors.FindSensorsByRole(ctx, roles)
	if err != nil {
		return nil, fmt.Errorf("finding sensors by role: %w", err)
	}

	seen := make(map[string]struct{}, len(sensors))
	var parents []string
	for _, s := range sensors {
		if s.ParentName == nil || *s.ParentName == "" {
			continue
		}
		if _, ok := seen[*s.ParentName]; ok {
			continue
		}
		seen[*s.ParentName] = struct{}{}
		parents = append(parents, *s.ParentName)
	}
	return parents, nil
}
