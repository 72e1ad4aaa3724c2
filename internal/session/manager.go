// Package session owns the in-memory session state machine. A single Manager
// instance is constructed at process start, derives its initial state from the
// credential store, and is the only writer the store ever sees.
package session

import (
	"sync"

	"github.com/mrseck/AQ54-fe/internal/session/domain"
	"github.com/mrseck/AQ54-fe/internal/session/repository"
)

// State is the observable state of the session machine.
type State string

const (
	// StateLoading holds only between construction and the one startup read.
	StateLoading State = "LOADING"
	// StateUnauthenticated means no usable session exists.
	StateUnauthenticated State = "UNAUTHENTICATED"
	// StateAuthenticated means a token and user profile are both present.
	StateAuthenticated State = "AUTHENTICATED"
)

// Snapshot is an immutable view of the session at one point in time.
// Consumers reading mid-transition see either the fully-old or fully-new
// snapshot, never a mix.
type Snapshot struct {
	State State
	Token string
	User  domain.User
}

// IsAuthenticated reports whether the snapshot carries a complete session.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Token != "" && s.User.Username != ""
}

// Manager is the process-wide source of truth for the session. All mutations
// go through Login and Logout; all reads go through Snapshot or Subscribe.
type Manager struct {
	store repository.Store

	mu      sync.RWMutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewManager returns a manager in StateLoading. Call Start before consulting
// any guard decision.
func NewManager(store repository.Store) *Manager {
	return &Manager{
		store:   store,
		current: Snapshot{State: StateLoading},
		subs:    make(map[int]chan Snapshot),
	}
}

// Start performs the one-time synchronous read of the credential store and
// transitions out of StateLoading. No network call is involved. Calling Start
// more than once is a no-op returning the current snapshot.
func (m *Manager) Start() Snapshot {
	m.mu.Lock()
	if m.current.State != StateLoading {
		snap := m.current
		m.mu.Unlock()
		return snap
	}
	sess, err := m.store.Get()
	next := Snapshot{State: StateUnauthenticated}
	if err == nil && sess.IsAuthenticated() {
		next = Snapshot{State: StateAuthenticated, Token: sess.Token, User: sess.User}
	}
	m.current = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	m.notify(subs, next)
	return next
}

// Login persists the pair first and only then makes it observable. On a
// persistence failure the transition does not occur: the caller sees the
// error and the state stays unauthenticated.
func (m *Manager) Login(token string, user domain.User) error {
	if err := m.store.Put(token, user); err != nil {
		return err
	}
	next := Snapshot{State: StateAuthenticated, Token: token, User: user}
	m.mu.Lock()
	m.current = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	m.notify(subs, next)
	return nil
}

// Logout clears the persisted pair unconditionally before touching the
// in-memory state, so a stale token is never left reachable even if a later
// step fails. The store error, if any, is returned after the in-memory state
// has still been cleared.
func (m *Manager) Logout() error {
	clearErr := m.store.Clear()
	next := Snapshot{State: StateUnauthenticated}
	m.mu.Lock()
	m.current = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	m.notify(subs, next)
	return clearErr
}

// InvalidateSession drops the session in response to a server-side 401. It is
// the hook the authentication gateway calls before surfacing an Unauthorized
// error, so authenticated UI state cannot outlive a rejected token.
func (m *Manager) InvalidateSession() {
	_ = m.Logout()
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Token returns the current bearer token, or "" when unauthenticated. It is
// the token source handed to the authentication gateway.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Subscribe registers a consumer for state transitions. Every transition
// delivers the new snapshot; a slow consumer only misses intermediate
// snapshots, never the latest one. The returned cancel func releases the
// subscription.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()
	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
	return ch, cancel
}

// snapshotSubs copies the subscriber channels; caller must hold mu.
func (m *Manager) snapshotSubs() []chan Snapshot {
	out := make([]chan Snapshot, 0, len(m.subs))
	for _, ch := range m.subs {
		out = append(out, ch)
	}
	return out
}

// notify delivers snap to each subscriber, replacing an undelivered older
// snapshot so the channel always holds the most recent state.
func (m *Manager) notify(subs []chan Snapshot, snap Snapshot) {
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
