package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidSession = errors.New("session: missing session_id or user_id")
	ErrSessionExists  = errors.New("session: id already in use")
)

// Session is the backend's record of a sign-in. It stores only identity
// pointers, not profile data.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Method    string    `json:"method"` // "password", "google", "facebook", ...
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) validate() error {
	if s.SessionID == "" || s.UserID == "" {
		return ErrInvalidSession
	}
	if !s.ExpiresAt.After(time.Now()) {
		return errors.New("session: expires_at must be in the future")
	}
	return nil
}

// Store defines how session records are stored and retrieved.
// Create never overwrites a live record. Get returns (nil, nil) for an
// unknown or expired session.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
