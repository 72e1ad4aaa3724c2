// Package telemetry defines the client's usage events: logins, logouts,
// guard redirects, and sensor queries, emitted best-effort to the
// observability backend.
package telemetry

import (
	"context"
	"time"
)

// Event types emitted by the dashboard client.
const (
	EventLogin       = "auth.login"
	EventLogout      = "auth.logout"
	EventCreateUser  = "auth.create_user"
	EventRegister    = "auth.register"
	EventSensorQuery = "sensor.query"
	EventRedirect    = "route.redirect"
)

// Event is a single client usage event.
type Event struct {
	// Type is one of the Event* constants.
	Type string
	// Username is the acting user, if a session exists.
	Username string
	// Outcome is "ok" or an error kind (e.g. "invalid_credentials").
	Outcome string
	// Route is the navigation target for route events.
	Route string
	// Station is the queried station for sensor events.
	Station string
	// CreatedAt is the event time; zero means "now" at emit.
	CreatedAt time.Time
}

// EventEmitter emits usage events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
