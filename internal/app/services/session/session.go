// Package session holds the anonymous visitor identity of one application
// instance.
package session

import (
	"github.com/google/uuid"
)

// Session is an opaque identifier generated once per application instance.
// It is never persisted and never changes.
type Session struct {
	id string
}

// New generates a fresh session identity.
func New() Session {
	return Session{id: uuid.NewString()}
}

// FromID wraps a known identifier. Used by tests and tooling that need a
// stable session.
func FromID(id string) Session {
	return Session{id: id}
}

// ID returns the session identifier.
func (s Session) ID() string {
	return s.id
}

func (s Session) String() string {
	return s.id
}
