package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mrseck/AQ54-fe/internal/session/domain"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

type countingInvalidator struct{ calls int32 }

func (c *countingInvalidator) InvalidateSession() { atomic.AddInt32(&c.calls, 1) }

func authOK(w http.ResponseWriter, role string) {
	json.NewEncoder(w).Encode(map[string]string{
		"token":    "tok-123",
		"username": "amina",
		"role":     role,
		"email":    "amina@example.com",
	})
}

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "amina@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		authOK(w, "ADMIN")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	account, err := c.Login(context.Background(), "Amina@Example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if account.Token != "tok-123" || account.User.Role != domain.RoleAdmin || account.User.Username != "amina" {
		t.Fatalf("account = %+v", account)
	}
}

func TestLoginRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	if _, err := c.Login(context.Background(), "a@b.co", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

// A 200 without a token is not a usable session.
func TestLoginMissingTokenIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"username": "amina", "role": "USER", "email": "a@b.co"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	if _, err := c.Login(context.Background(), "a@b.co", "pw"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("want ErrMalformedResponse, got %v", err)
	}
}

// An out-of-enumeration role is rejected whole; no partial account escapes.
func TestLoginInvalidRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authOK(w, "SUPERUSER")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	account, err := c.Login(context.Background(), "a@b.co", "pw")
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("want ErrInvalidRole, got %v", err)
	}
	if account != nil {
		t.Fatalf("partial account returned: %+v", account)
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, staticTokens(""))
	if _, err := c.Login(context.Background(), "a@b.co", "pw"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("want ErrNetwork, got %v", err)
	}
}

func TestCreateUserRequiresBearerToken(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	_, err := c.CreateUser(context.Background(), CreateUserProfile{
		Username: "new", Email: "new@example.com", Password: "Str0ng!Passw0rd", Role: domain.RoleUser,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Fatal("an unauthenticated create-user request was dispatched")
	}
}

func TestCreateUserSendsBearerAndSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer admin-tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id")
		}
		authOK(w, "USER")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("admin-tok"))
	account, err := c.CreateUser(context.Background(), CreateUserProfile{
		Username: "new", Email: "new@example.com", Password: "Str0ng!Passw0rd", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if account.User.Role != domain.RoleUser {
		t.Fatalf("account = %+v", account)
	}
}

// A 401 on an authenticated call invalidates the local session before the
// error surfaces.
func TestAuthenticated401InvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	inv := &countingInvalidator{}
	c := NewClient(srv.URL, staticTokens("stale-tok"), WithSessionInvalidator(inv))
	_, err := c.UserCount(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if atomic.LoadInt32(&inv.calls) != 1 {
		t.Fatalf("invalidator called %d times, want 1", inv.calls)
	}
}

// Policy violations never leave the client.
func TestRegisterPolicyViolationSkipsDispatch(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	_, err := c.Register(context.Background(), RegisterProfile{
		Username: "new", Email: "new@example.com", Password: "short",
	})
	if err == nil {
		t.Fatal("weak password accepted")
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Fatal("request dispatched despite policy violation")
	}
}

func TestRegisterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body RegisterProfile
		json.NewDecoder(r.Body).Decode(&body)
		if body.FirstName != "Amina" {
			t.Errorf("firstName = %q", body.FirstName)
		}
		authOK(w, "USER")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	account, err := c.Register(context.Background(), RegisterProfile{
		Username: "amina", Email: "amina@example.com", Password: "Str0ng!Passw0rd",
		FirstName: "Amina", LastName: "Seck",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.User.Username != "amina" {
		t.Fatalf("account = %+v", account)
	}
}

func TestSummaryCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/users":
			json.NewEncoder(w).Encode(map[string]int{"count": 156})
		case "/sensor/data-collected":
			json.NewEncoder(w).Encode(map[string]int{"count": 8214})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok"))
	users, err := c.UserCount(context.Background())
	if err != nil || users != 156 {
		t.Fatalf("UserCount = %d, %v", users, err)
	}
	collected, err := c.CollectedCount(context.Background())
	if err != nil || collected != 8214 {
		t.Fatalf("CollectedCount = %d, %v", collected, err)
	}
}
