// Package auth issues and verifies session tokens and carries the current
// session through a request context.
package auth

import (
	"context"
)

// Session identifies the caller of a request.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image"`
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// SessionOracle resolves the session of the current request. A request
// without a session yields (nil, nil).
type SessionOracle interface {
	Current(ctx context.Context) (*Session, error)
}

// ContextOracle reads the session placed in the context by the session
// middleware.
type ContextOracle struct{}

func (ContextOracle) Current(ctx context.Context) (*Session, error) {
	s, _ := FromContext(ctx)
	return s, nil
}
