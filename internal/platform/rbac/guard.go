// Package rbac holds the role guard: a pure decision function gating
// navigation by required role. It performs no I/O and has no side effects;
// the routing layer acts on the decision.
package rbac

import (
	"github.com/mrseck/AQ54-fe/internal/routing"
	"github.com/mrseck/AQ54-fe/internal/session"
	"github.com/mrseck/AQ54-fe/internal/session/domain"
)

// DecisionKind classifies a guard decision.
type DecisionKind string

const (
	// Allow grants access to the requested route.
	Allow DecisionKind = "ALLOW"
	// Redirect denies the requested route and names where to go instead. A
	// role mismatch always redirects to the caller's own home, never to a
	// dead-end error page.
	Redirect DecisionKind = "REDIRECT"
	// Indeterminate means the session is still loading; the caller must wait
	// for a settled state rather than guess.
	Indeterminate DecisionKind = "INDETERMINATE"
)

// Decision is the outcome of a guard check. Target is set only for Redirect.
type Decision struct {
	Kind   DecisionKind
	Target routing.Route
}

// Decide maps (session snapshot, required roles) to an access decision.
// An empty allowed set means the route is open to any authenticated user.
func Decide(snap session.Snapshot, allowed ...domain.Role) Decision {
	if snap.State == session.StateLoading {
		return Decision{Kind: Indeterminate}
	}
	if !snap.IsAuthenticated() {
		return Decision{Kind: Redirect, Target: routing.RouteIndex}
	}
	if len(allowed) == 0 {
		return Decision{Kind: Allow}
	}
	for _, role := range allowed {
		if snap.User.Role == role {
			return Decision{Kind: Allow}
		}
	}
	return Decision{Kind: Redirect, Target: routing.HomeRouteFor(snap.User.Role)}
}

// DecideRoute runs Decide with the role set the route table declares for the
// requested route.
func DecideRoute(snap session.Snapshot, route routing.Route) Decision {
	allowed := routing.AllowedRoles(route)
	if allowed == nil {
		if snap.State == session.StateLoading {
			return Decision{Kind: Indeterminate}
		}
		return Decision{Kind: Allow}
	}
	return Decide(snap, allowed...)
}
