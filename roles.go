package signup

import "strings"

// Role is the user's role as reported by the backend
type Role string

const (
	// RoleMember can manage their own signups
	RoleMember Role = "member"
	// RoleAdmin manages activities and users
	RoleAdmin Role = "admin"
	// RoleSupervisor oversees rosters
	RoleSupervisor Role = "supervisor"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleSupervisor:
		return true
	default:
		return false
	}
}

// Title returns the display name used in the dashboard label.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleMember,
		RoleAdmin,
		RoleSupervisor,
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

// NavLink is one entry of the role navigation panel.
type NavLink struct {
	Label string `json:"label"`
	Route string `json:"route"`
}

type roleNavigation struct {
	defaultRoute string
	links        []NavLink
}

var navigationByRole = map[Role]roleNavigation{
	RoleMember: {
		defaultRoute: "member-home",
		links: []NavLink{
			{Label: "My Activities", Route: "member-activities"},
			{Label: "Browse Clubs", Route: "member-browse"},
			{Label: "My Schedule", Route: "member-schedule"},
		},
	},
	RoleAdmin: {
		defaultRoute: "admin-dashboard",
		links: []NavLink{
			{Label: "Manage Activities", Route: "admin-activities"},
			{Label: "Manage Users", Route: "admin-users"},
			{Label: "Reports", Route: "admin-reports"},
		},
	},
	RoleSupervisor: {
		defaultRoute: "supervisor-dashboard",
		links: []NavLink{
			{Label: "Review Rosters", Route: "supervisor-rosters"},
			{Label: "Attendance", Route: "supervisor-attendance"},
			{Label: "Reports", Route: "supervisor-reports"},
		},
	},
}

// NavigationFor returns a copy of the links configured for role.
func NavigationFor(role Role) []NavLink {
	nav, ok := navigationByRole[role]
	if !ok {
		return nil
	}
	out := make([]NavLink, len(nav.links))
	copy(out, nav.links)
	return out
}

// DefaultRouteFor returns the landing route for role, empty for unknown roles.
func DefaultRouteFor(role Role) string {
	return navigationByRole[role].defaultRoute
}
