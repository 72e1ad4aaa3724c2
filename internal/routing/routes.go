// Package routing declares the dashboard's navigation surface: the index
// route, the role homes, and the role-gated subtrees. The role guard and the
// index redirect both resolve through HomeRouteFor so the two can never
// disagree on where a role belongs.
package routing

import (
	"github.com/mrseck/AQ54-fe/internal/session"
	"github.com/mrseck/AQ54-fe/internal/session/domain"
)

// Route is a navigation target.
type Route string

const (
	// RouteIndex is the anonymous landing route; it doubles as the redirect
	// target for unauthenticated access to any gated route.
	RouteIndex Route = "/"
	// RouteUserHome is the USER role's home.
	RouteUserHome Route = "/dashboard"
	// RouteAdminHome is the ADMIN role's home.
	RouteAdminHome Route = "/admin"
	// RouteCreateUser is the admin-only account creation route.
	RouteCreateUser Route = "/create-user"
)

// HomeRouteFor maps a role to its home route.
func HomeRouteFor(role domain.Role) Route {
	if role == domain.RoleAdmin {
		return RouteAdminHome
	}
	return RouteUserHome
}

// AllowedRoles returns the roles permitted on a gated route, or nil for
// routes open to anonymous visitors.
func AllowedRoles(r Route) []domain.Role {
	switch r {
	case RouteUserHome:
		return []domain.Role{domain.RoleUser}
	case RouteAdminHome, RouteCreateUser:
		return []domain.Role{domain.RoleAdmin}
	default:
		return nil
	}
}

// ResolveIndex decides where the index route lands for the given session:
// the role home when authenticated, the anonymous landing (index itself)
// otherwise. While the session is still loading no destination is resolved
// and ok is false.
func ResolveIndex(snap session.Snapshot) (Route, bool) {
	if snap.State == session.StateLoading {
		return "", false
	}
	if snap.IsAuthenticated() {
		return HomeRouteFor(snap.User.Role), true
	}
	return RouteIndex, true
}

// Normalize maps a requested path onto the route table. Unknown paths fall
// back to the index route, mirroring the web app's catch-all redirect.
func Normalize(path string) Route {
	switch Route(path) {
	case RouteIndex, RouteUserHome, RouteAdminHome, RouteCreateUser:
		return Route(path)
	default:
		return RouteIndex
	}
}
