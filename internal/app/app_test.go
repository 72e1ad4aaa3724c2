package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrseck/AQ54-fe/internal/identity/gateway"
	"github.com/mrseck/AQ54-fe/internal/platform/rbac"
	"github.com/mrseck/AQ54-fe/internal/routing"
	"github.com/mrseck/AQ54-fe/internal/sensor/query"
	"github.com/mrseck/AQ54-fe/internal/session"
	"github.com/mrseck/AQ54-fe/internal/session/repository"
)

// testApp wires a full client against srv with a temp credential file.
func testApp(t *testing.T, srv *httptest.Server) (*App, *session.Manager, *bytes.Buffer) {
	t.Helper()
	store := repository.NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	manager := session.NewManager(store)
	gw := gateway.NewClient(srv.URL, manager, gateway.WithSessionInvalidator(manager))
	composer := query.NewComposer(gw, nil)
	var out bytes.Buffer
	return New(manager, gw, composer, nil, []string{"SMART188"}, &out), manager, &out
}

func loginHandler(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]string{
				"token": "tok-1", "username": "amina", "role": role, "email": "amina@example.com",
			})
		default:
			http.NotFound(w, r)
		}
	}
}

func TestLoginThenIndexResolvesHome(t *testing.T) {
	srv := httptest.NewServer(loginHandler("ADMIN"))
	defer srv.Close()
	a, _, out := testApp(t, srv)

	if err := a.Run(context.Background(), []string{"login", "-email", "amina@example.com", "-password", "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), string(routing.RouteAdminHome)) {
		t.Fatalf("login output %q does not name the admin home", out.String())
	}

	out.Reset()
	if err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(out.String(), string(routing.RouteAdminHome)) {
		t.Fatalf("index output %q does not resolve to the admin home", out.String())
	}
}

func TestCreateUserGateRedirectsNonAdmin(t *testing.T) {
	var createCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/create-user" {
			createCalls++
		}
		loginHandler("USER")(w, r)
	}))
	defer srv.Close()
	a, _, out := testApp(t, srv)

	if err := a.Run(context.Background(), []string{"login", "-email", "u@example.com", "-password", "pw"}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err := a.Run(context.Background(), []string{"create-user",
		"-username", "x", "-email", "x@example.com", "-password", "Str0ng!Passw0rd", "-role", "USER"})
	if err != nil {
		t.Fatalf("create-user: %v", err)
	}
	if !strings.Contains(out.String(), string(routing.RouteUserHome)) {
		t.Fatalf("gate output %q does not redirect to the user home", out.String())
	}
	if createCalls != 0 {
		t.Fatal("gated command still hit the server")
	}
}

// A 401 while fetching telemetry clears the session, surfaces the expired
// condition, and the next route check redirects to the anonymous landing.
func TestTelemetry401ExpiresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sensor" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		loginHandler("USER")(w, r)
	}))
	defer srv.Close()
	a, manager, out := testApp(t, srv)

	if err := a.Run(context.Background(), []string{"login", "-email", "u@example.com", "-password", "pw"}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err := a.Run(context.Background(), []string{"sensor",
		"-station", "SMART188", "-start-date", "2024-06-01", "-end-date", "2024-06-02", "-granularity", "day"})
	if err != nil {
		t.Fatalf("sensor: %v", err)
	}
	if !strings.Contains(out.String(), "session expired") {
		t.Fatalf("output %q does not surface session expiry", out.String())
	}
	if manager.Snapshot().IsAuthenticated() {
		t.Fatal("session survived the 401")
	}
	d := rbac.DecideRoute(manager.Snapshot(), routing.RouteUserHome)
	if d.Kind != rbac.Redirect || d.Target != routing.RouteIndex {
		t.Fatalf("post-expiry guard decision = %+v, want redirect to index", d)
	}
}

func TestSensorInvalidRangeReportsWithoutFetch(t *testing.T) {
	var sensorCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sensor" {
			sensorCalls++
		}
		loginHandler("USER")(w, r)
	}))
	defer srv.Close()
	a, _, out := testApp(t, srv)

	if err := a.Run(context.Background(), []string{"login", "-email", "u@example.com", "-password", "pw"}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err := a.Run(context.Background(), []string{"sensor",
		"-station", "SMART188", "-start-date", "2024-06-10", "-end-date", "2024-06-01", "-granularity", "day"})
	if err != nil {
		t.Fatalf("sensor: %v", err)
	}
	if !strings.Contains(out.String(), "invalid range") {
		t.Fatalf("output %q does not report the invalid range", out.String())
	}
	if sensorCalls != 0 {
		t.Fatal("invalid range still produced a fetch")
	}
}

func TestSensorNoDataIsAStateNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sensor" {
			json.NewEncoder(w).Encode([]any{})
			return
		}
		loginHandler("USER")(w, r)
	}))
	defer srv.Close()
	a, _, out := testApp(t, srv)

	if err := a.Run(context.Background(), []string{"login", "-email", "u@example.com", "-password", "pw"}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err := a.Run(context.Background(), []string{"sensor",
		"-station", "SMART188", "-start-date", "2024-06-01", "-end-date", "2024-06-02", "-granularity", "day"})
	if err != nil {
		t.Fatalf("sensor: %v", err)
	}
	if !strings.Contains(out.String(), "no data") {
		t.Fatalf("output %q does not report the empty range", out.String())
	}
}

func TestLogoutThenWhoami(t *testing.T) {
	srv := httptest.NewServer(loginHandler("USER"))
	defer srv.Close()
	a, manager, out := testApp(t, srv)

	if err := a.Run(context.Background(), []string{"login", "-email", "u@example.com", "-password", "pw"}); err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background(), []string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if manager.Snapshot().IsAuthenticated() {
		t.Fatal("still authenticated after logout")
	}
	out.Reset()
	if err := a.Run(context.Background(), []string{"whoami"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "not signed in") {
		t.Fatalf("whoami output %q", out.String())
	}
}

func TestUnknownCommandFails(t *testing.T) {
	srv := httptest.NewServer(loginHandler("USER"))
	defer srv.Close()
	a, _, _ := testApp(t, srv)
	if err := a.Run(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatal("unknown command accepted")
	}
}
