// Package domain defines the core persistence models and value types of the
// club portal. Persistence types are mapped with GORM and shared across the
// repository, service and HTTP layers.
package domain

import (
	"errors"
	"slices"
	"strings"
)

// Role is the closed set of portal roles. The zero value is not a valid role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
	RoleParent  Role = "parent"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleAdmin, RoleCoach, RoleAthlete, RoleParent}

// ErrInvalidRole is returned by ParseRole for strings outside the enumeration.
var ErrInvalidRole = errors.New("role must be one of: " + joinRoles(Roles))

func joinRoles(rs []Role) string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// ParseRole converts a stored or user-supplied string into a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Roles, r) {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// Capability names a single permission checked by handlers and middleware.
type Capability string

const (
	CapViewAdminPortal    Capability = "view_admin_portal"
	CapViewCoachPortal    Capability = "view_coach_portal"
	CapViewAthletePortal  Capability = "view_athlete_portal"
	CapViewParentPortal   Capability = "view_parent_portal"
	CapCheckIn            Capability = "check_in"
	CapRequestLeave       Capability = "request_leave"
	CapApplyForMembership Capability = "apply_for_membership"
	CapReviewApplications Capability = "review_applications"
	CapManageSessions     Capability = "manage_sessions"
	CapManageUsers        Capability = "manage_users"
)

// capabilities is the single source of truth for what each role may do.
// Adding a role means adding a Role constant, a row here and a dashboard path.
var capabilities = map[Role]map[Capability]struct{}{
	RoleAdmin: set(
		CapViewAdminPortal,
		CapReviewApplications,
		CapManageSessions,
		CapManageUsers,
	),
	RoleCoach: set(
		CapViewCoachPortal,
		CapReviewApplications,
		CapManageSessions,
	),
	RoleAthlete: set(
		CapViewAthletePortal,
		CapCheckIn,
		CapRequestLeave,
		CapApplyForMembership,
	),
	RoleParent: set(
		CapViewParentPortal,
	),
}

func set(cs ...Capability) map[Capability]struct{} {
	m := make(map[Capability]struct{}, len(cs))
	for _, c := range cs {
		m[c] = struct{}{}
	}
	return m
}

// Can reports whether the role has been granted capability c.
// Invalid roles have no capabilities.
func (r Role) Can(c Capability) bool {
	caps, ok := capabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}

// dashboards maps each role to the root of its portal.
var dashboards = map[Role]string{
	RoleAdmin:   "/admin",
	RoleCoach:   "/coach",
	RoleAthlete: "/athlete",
	RoleParent:  "/parent",
}

// portalCapability maps a portal root to the capability required to view it.
var portalCapability = map[string]Capability{
	"/admin":   CapViewAdminPortal,
	"/coach":   CapViewCoachPortal,
	"/athlete": CapViewAthletePortal,
	"/parent":  CapViewParentPortal,
}

// DashboardPath returns the root path of the role's own portal, or "/login"
// for an invalid role.
func (r Role) DashboardPath() string {
	if p, ok := dashboards[r]; ok {
		return p
	}
	return "/login"
}

// PortalRoot returns the portal root that owns path ("/coach/roster" →
// "/coach") and whether path belongs to a portal at all.
func PortalRoot(path string) (string, bool) {
	for root := range portalCapability {
		if path == root || strings.HasPrefix(path, root+"/") {
			return root, true
		}
	}
	return "", false
}

// CanViewPortal reports whether r may open pages under the portal root.
func (r Role) CanViewPortal(root string) bool {
	c, ok := portalCapability[root]
	return ok && r.Can(c)
}
