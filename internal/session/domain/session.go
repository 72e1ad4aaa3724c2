// Package domain holds the client-side identity types: roles, the user
// profile, and the persisted session record.
package domain

import (
	"errors"
	"strings"
)

// Role is the closed set of roles the platform knows about.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ErrInvalidRole is returned when a role string received from the network or
// from persisted state is outside the closed enumeration.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole validates a raw role string against the enumeration. Unknown
// values are a validation failure, never silently coerced.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// User is the profile attached to an authenticated session.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Validate checks the user for persistence: a username and a valid role are
// required.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}

// Session is the authoritative identity record: an opaque bearer token plus
// the user it belongs to. A session is only ever constructed whole; a record
// with one of the two parts missing is not a session.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// IsAuthenticated reports whether both the token and the user profile are
// present. It is derived, never stored, so it cannot drift from the fields.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != "" && s.User.Username != ""
}
