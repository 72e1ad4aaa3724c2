// Package app wires the dashboard client together and maps commands onto the
// same session, guard, and query machinery the web routes used.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mrseck/AQ54-fe/internal/identity/gateway"
	"github.com/mrseck/AQ54-fe/internal/platform/rbac"
	"github.com/mrseck/AQ54-fe/internal/routing"
	"github.com/mrseck/AQ54-fe/internal/sensor/domain"
	"github.com/mrseck/AQ54-fe/internal/sensor/query"
	"github.com/mrseck/AQ54-fe/internal/session"
	sessiondomain "github.com/mrseck/AQ54-fe/internal/session/domain"
	"github.com/mrseck/AQ54-fe/internal/telemetry"
)

// App holds the client's long-lived components. One App exists per process.
type App struct {
	manager  *session.Manager
	gateway  *gateway.Client
	composer *query.Composer
	emitter  telemetry.EventEmitter
	stations []string
	out      io.Writer
}

// New returns an App over the given components. emitter may be nil.
func New(manager *session.Manager, gw *gateway.Client, composer *query.Composer, emitter telemetry.EventEmitter, stations []string, out io.Writer) *App {
	return &App{
		manager:  manager,
		gateway:  gw,
		composer: composer,
		emitter:  emitter,
		stations: stations,
		out:      out,
	}
}

// Start performs the startup read of the credential store. Every command path
// calls it first, so no guard decision ever observes StateLoading.
func (a *App) Start() session.Snapshot {
	return a.manager.Start()
}

// Index resolves the index route for the current session: the role home when
// authenticated, the anonymous landing otherwise.
func (a *App) Index(ctx context.Context) error {
	snap := a.Start()
	route, ok := routing.ResolveIndex(snap)
	if !ok {
		return errors.New("session state not settled")
	}
	if route == routing.RouteIndex {
		fmt.Fprintln(a.out, "not signed in; use `dashboard login` to authenticate")
		return nil
	}
	fmt.Fprintf(a.out, "signed in as %s (%s); home route %s\n", snap.User.Username, snap.User.Role, route)
	return nil
}

// Login authenticates and persists the session. Persistence failure aborts
// the transition and is reported distinctly from credential rejection.
func (a *App) Login(ctx context.Context, email, password string) error {
	a.Start()
	account, err := a.gateway.Login(ctx, email, password)
	if err != nil {
		a.emit(ctx, &telemetry.Event{Type: telemetry.EventLogin, Outcome: errorKind(err)})
		return err
	}
	if err := a.manager.Login(account.Token, account.User); err != nil {
		a.emit(ctx, &telemetry.Event{Type: telemetry.EventLogin, Username: account.User.Username, Outcome: "persistence_failure"})
		return fmt.Errorf("session not established: %w", err)
	}
	a.emit(ctx, &telemetry.Event{Type: telemetry.EventLogin, Username: account.User.Username, Outcome: "ok"})
	fmt.Fprintf(a.out, "welcome %s; home route %s\n", account.User.Username, routing.HomeRouteFor(account.User.Role))
	return nil
}

// Logout clears the session. The persisted pair is cleared even if reporting
// fails afterwards.
func (a *App) Logout(ctx context.Context) error {
	snap := a.Start()
	err := a.manager.Logout()
	a.composer.Reset()
	a.emit(ctx, &telemetry.Event{Type: telemetry.EventLogout, Username: snap.User.Username, Outcome: "ok"})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

// Whoami prints the current session, including a best-effort expiry peek at
// the stored token.
func (a *App) Whoami(ctx context.Context) error {
	snap := a.Start()
	if !snap.IsAuthenticated() {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "user: %s\nemail: %s\nrole: %s\n", snap.User.Username, snap.User.Email, snap.User.Role)
	if info, ok := session.PeekToken(snap.Token); ok && !info.ExpiresAt.IsZero() {
		if info.Expired(time.Now()) {
			fmt.Fprintf(a.out, "token: expired %s\n", info.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Fprintf(a.out, "token: valid until %s\n", info.ExpiresAt.Format(time.RFC3339))
		}
	}
	return nil
}

// Register self-registers an account and signs in with the returned session.
func (a *App) Register(ctx context.Context, profile gateway.RegisterProfile) error {
	a.Start()
	account, err := a.gateway.Register(ctx, profile)
	if err != nil {
		a.emit(ctx, &telemetry.Event{Type: telemetry.EventRegister, Outcome: errorKind(err)})
		return err
	}
	if err := a.manager.Login(account.Token, account.User); err != nil {
		return fmt.Errorf("session not established: %w", err)
	}
	a.emit(ctx, &telemetry.Event{Type: telemetry.EventRegister, Username: account.User.Username, Outcome: "ok"})
	fmt.Fprintf(a.out, "account %s created; home route %s\n", account.User.Username, routing.HomeRouteFor(account.User.Role))
	return nil
}

// CreateUser creates an account on behalf of an administrator. The role
// guard is consulted first, exactly as the web route was gated.
func (a *App) CreateUser(ctx context.Context, profile gateway.CreateUserProfile) error {
	snap := a.Start()
	if !a.pass(ctx, snap, routing.RouteCreateUser) {
		return nil
	}
	account, err := a.gateway.CreateUser(ctx, profile)
	if err != nil {
		a.emit(ctx, &telemetry.Event{Type: telemetry.EventCreateUser, Username: snap.User.Username, Outcome: errorKind(err)})
		return err
	}
	a.emit(ctx, &telemetry.Event{Type: telemetry.EventCreateUser, Username: snap.User.Username, Outcome: "ok"})
	fmt.Fprintf(a.out, "created %s (%s)\n", account.User.Username, account.User.Role)
	return nil
}

// Overview prints the admin summary counters.
func (a *App) Overview(ctx context.Context) error {
	snap := a.Start()
	if !a.pass(ctx, snap, routing.RouteAdminHome) {
		return nil
	}
	users, err := a.gateway.UserCount(ctx)
	if err != nil {
		return err
	}
	collected, err := a.gateway.CollectedCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "users: %d\nmeasurements collected: %d\n", users, collected)
	return nil
}

// Sensor runs one telemetry query and renders the normalized samples.
// RangeInvalid and NoData are rendered states, not failures.
func (a *App) Sensor(ctx context.Context, station, startDate, startTime, endDate, endTime, granularity string) error {
	snap := a.Start()
	if !snap.IsAuthenticated() {
		fmt.Fprintf(a.out, "redirect %s (sign in first)\n", routing.RouteIndex)
		return nil
	}
	window, err := domain.BuildWindow(station, startDate, startTime, endDate, endTime, granularity, time.Local)
	if err != nil {
		if errors.Is(err, domain.ErrRangeInvalid) {
			fmt.Fprintln(a.out, "invalid range: end precedes start; nothing fetched")
			return nil
		}
		return err
	}
	a.emit(ctx, &telemetry.Event{Type: telemetry.EventSensorQuery, Username: snap.User.Username, Station: window.Station, Outcome: "issued"})
	res, err := a.composer.Refresh(ctx, window)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrSessionExpired):
			fmt.Fprintf(a.out, "session expired; redirect %s\n", routing.RouteIndex)
			return nil
		case errors.Is(err, query.ErrSuperseded):
			return nil
		default:
			return err
		}
	}
	if res.NoData {
		fmt.Fprintf(a.out, "no data for %s between %s and %s\n",
			window.Station, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
		return nil
	}
	fmt.Fprintf(a.out, "%-25s %8s %8s %9s %7s %7s %7s %7s\n",
		"timestamp", "temp", "humid", "press", "o3", "no2", "pm25", "pm10")
	for _, s := range res.Samples {
		fmt.Fprintf(a.out, "%-25s %8.1f %8.1f %9.1f %7.1f %7.1f %7.1f %7.1f\n",
			s.Timestamp.Format(time.RFC3339), s.Temperature, s.Humidity, s.Pressure, s.O3, s.NO2, s.PM25, s.PM10)
	}
	return nil
}

// Stations prints the configured station catalogue.
func (a *App) Stations() {
	list := a.stations
	if len(list) == 0 {
		list = domain.DefaultStations
	}
	for _, s := range list {
		fmt.Fprintln(a.out, s)
	}
}

// pass applies the role guard for route and reports whether access is
// allowed, printing the redirect destination otherwise.
func (a *App) pass(ctx context.Context, snap session.Snapshot, route routing.Route) bool {
	decision := rbac.DecideRoute(snap, route)
	switch decision.Kind {
	case rbac.Allow:
		return true
	case rbac.Indeterminate:
		fmt.Fprintln(a.out, "session state not settled; try again")
		return false
	default:
		a.emit(ctx, &telemetry.Event{Type: telemetry.EventRedirect, Username: snap.User.Username, Route: string(decision.Target)})
		fmt.Fprintf(a.out, "redirect %s\n", decision.Target)
		return false
	}
}

func (a *App) emit(ctx context.Context, ev *telemetry.Event) {
	telemetry.EmitAsync(a.emitter, ctx, ev)
}

// errorKind labels a gateway error for telemetry.
func errorKind(err error) string {
	switch {
	case errors.Is(err, gateway.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, gateway.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, gateway.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, sessiondomain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, gateway.ErrNetwork):
		return "network_failure"
	default:
		return "error"
	}
}
