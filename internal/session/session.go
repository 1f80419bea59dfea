// Package session holds the per-request visitor session: the admin flag
// and the set of rooms the visitor has unlocked.
package session

import (
	"context"
	"sort"
	"time"
)

// Session is the state attached to a single visitor cookie.
type Session struct {
	ID       string
	admin    bool
	unlocked map[string]bool
	dirty    bool
	ended    bool
}

// New creates an empty session with the given id.
func New(id string) *Session {
	return &Session{ID: id, unlocked: make(map[string]bool)}
}

// Restore rebuilds a persisted session without marking it modified.
func Restore(id string, admin bool, rooms []string) *Session {
	s := New(id)
	s.admin = admin
	for _, r := range rooms {
		s.unlocked[r] = true
	}
	return s
}

// IsAdmin reports whether the session authenticated as administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.admin
}

// SetAdmin records an admin login or logout.
func (s *Session) SetAdmin(admin bool) {
	if s.admin != admin {
		s.admin = admin
		s.dirty = true
	}
}

// HasAccess reports whether the session unlocked roomID.
func (s *Session) HasAccess(roomID string) bool {
	return s != nil && s.unlocked[roomID]
}

// Grant records that the session unlocked roomID.
func (s *Session) Grant(roomID string) {
	if !s.unlocked[roomID] {
		s.unlocked[roomID] = true
		s.dirty = true
	}
}

// End clears the admin flag and every unlocked room. The session is removed
// from the store once the request completes.
func (s *Session) End() {
	s.admin = false
	s.unlocked = make(map[string]bool)
	s.ended = true
	s.dirty = true
}

// Ended reports whether End was called.
func (s *Session) Ended() bool {
	return s.ended
}

// Rooms returns the unlocked room ids in sorted order.
func (s *Session) Rooms() []string {
	rooms := make([]string, 0, len(s.unlocked))
	for r := range s.unlocked {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return rooms
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

// MarkClean resets the modification flag after a save.
func (s *Session) MarkClean() {
	s.dirty = false
}

// Store persists sessions between requests. SaveSession merges unlocked rooms
// into what is already stored so concurrent requests on one session do not
// drop each other's grants; only DeleteSession removes them.
type Store interface {
	LoadSession(ctx context.Context, id string) (*Session, error) // nil, nil when unknown or expired
	SaveSession(ctx context.Context, s *Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error
}

type contextKey string

const sessionContextKey contextKey = "session"

// NewContext returns a context carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext returns the request session, or nil when none is attached.
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return s
}
