// Package repository defines durable persistence for the session credentials:
// the bearer token and the user profile, always stored and cleared as a pair.
package repository

import (
	"errors"

	"github.com/mrseck/AQ54-fe/internal/session/domain"
)

// ErrPersistence is returned when the credential pair could not be written or
// cleared. After the error the previously persisted pair is still intact.
var ErrPersistence = errors.New("credential persistence failed")

// Store defines persistence for the credential pair. Operations are
// synchronous and all-or-nothing: a failed Put never leaves token and user
// inconsistent with each other.
type Store interface {
	// Get returns the persisted session, or nil if none is stored. A corrupt
	// or invalid record (undecodable payload, unknown role) is cleared and
	// reported as no session rather than propagated.
	Get() (*domain.Session, error)
	// Put persists the token/user pair, replacing any previous pair.
	Put(token string, user domain.User) error
	// Clear removes both entries. Clearing an empty store is not an error.
	Clear() error
}
