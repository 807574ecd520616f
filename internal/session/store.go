package session

import (
	"context"
	"time"
)

// Session is the server-side state of one browsing client. It holds at most
// one cart and at most one authenticated customer reference.
type Session struct {
	SessionID         string        `json:"sid"`
	CustomerID        string        `json:"customer_id,omitempty"`
	Cart              map[int64]int `json:"cart,omitempty"` // product ID -> quantity
	CreatedAt         time.Time     `json:"created_at"`
	ExpiresAt         time.Time     `json:"expires_at"`          // sliding idle expiry
	AbsoluteExpiresAt time.Time     `json:"absolute_expires_at"` // hard cap
}

// Policy controls session lifetime: every request pushes ExpiresAt IdleTTL
// into the future, never past CreatedAt+AbsoluteTTL.
type Policy struct {
	IdleTTL     time.Duration
	AbsoluteTTL time.Duration
}

// New returns a fresh anonymous session with a random ID.
func New(now time.Time, p Policy) (Session, error) {
	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}
	s := Session{
		SessionID:         id,
		CreatedAt:         now,
		AbsoluteExpiresAt: now.Add(p.AbsoluteTTL),
	}
	s.Touch(now, p)
	return s, nil
}

// Touch extends the idle expiry.
func (s *Session) Touch(now time.Time, p Policy) {
	exp := now.Add(p.IdleTTL)
	if !s.AbsoluteExpiresAt.IsZero() && exp.After(s.AbsoluteExpiresAt) {
		exp = s.AbsoluteExpiresAt
	}
	s.ExpiresAt = exp
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *Session) Authenticated() bool {
	return s.CustomerID != ""
}

// Store defines how sessions are stored and retrieved. Get returns (nil, nil)
// for unknown or expired sessions.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
