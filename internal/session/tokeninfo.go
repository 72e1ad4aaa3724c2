package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is a best-effort view of the stored token's claims, used only for
// display (whoami, expiry hints). The token stays opaque to the state machine
// and to every authorization decision; the server remains the authority.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// PeekToken parses the token as a JWT without verifying its signature and
// extracts the standard claims. Returns ok false when the token is not a JWT
// or carries no readable claims.
func PeekToken(token string) (TokenInfo, bool) {
	if token == "" {
		return TokenInfo{}, false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}
	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if info.Subject == "" && info.ExpiresAt.IsZero() && info.IssuedAt.IsZero() {
		return TokenInfo{}, false
	}
	return info, true
}

// Expired reports whether the token claims an expiry in the past relative to
// now. A token without an exp claim never reports expired.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}
