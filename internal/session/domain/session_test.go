package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw     string
		want    Role
		wantErr bool
	}{
		{"USER", RoleUser, false},
		{"ADMIN", RoleAdmin, false},
		{" ADMIN ", RoleAdmin, false},
		{"SUPERUSER", "", true},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ParseRole(%q): want ErrInvalidRole, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q): unexpected error %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestSessionIsAuthenticated(t *testing.T) {
	var nilSession *Session
	if nilSession.IsAuthenticated() {
		t.Error("nil session must not be authenticated")
	}
	cases := []struct {
		name string
		s    Session
		want bool
	}{
		{"complete", Session{Token: "t", User: User{Username: "amina", Role: RoleUser}}, true},
		{"missing token", Session{User: User{Username: "amina", Role: RoleUser}}, false},
		{"missing user", Session{Token: "t"}, false},
		{"empty", Session{}, false},
	}
	for _, tc := range cases {
		if got := tc.s.IsAuthenticated(); got != tc.want {
			t.Errorf("%s: IsAuthenticated = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestUserValidate(t *testing.T) {
	u := User{Username: "amina", Email: "amina@example.com", Role: RoleAdmin}
	if err := u.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	u.Role = "SUPERUSER"
	if err := u.Validate(); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("invalid role: want ErrInvalidRole, got %v", err)
	}
	u = User{Role: RoleUser}
	if err := u.Validate(); err == nil {
		t.Error("missing username accepted")
	}
}
