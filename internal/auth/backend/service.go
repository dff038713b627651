package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"handyman-auth/internal/auth/credentials"
	"handyman-auth/internal/auth/provider"
	"handyman-auth/internal/auth/resolver"
	"handyman-auth/internal/db"
	"handyman-auth/internal/logger"
	"handyman-auth/internal/session"
)

const DefaultSessionTTL = 30 * 24 * time.Hour

var ErrNoCurrentUser = errors.New("no user is currently signed in")

// Config names the registry verifiers used for federated and social tokens.
type Config struct {
	FederatedProvider string
	SocialProvider    string
	SessionTTL        time.Duration
}

type current struct {
	principal provider.Principal
	sessionID string
}

// Service is the authentication backend behind the gateway. It owns
// accounts, verifies provider tokens and keeps the process-wide signed-in
// principal.
type Service struct {
	db          *db.DB
	credentials *credentials.Service
	resolver    resolver.Resolver
	verifiers   *provider.Registry
	sessions    session.Store
	cfg         Config
	now         func() time.Time

	mu      sync.RWMutex
	current *current
}

func New(
	d *db.DB,
	verifiers *provider.Registry,
	sessions session.Store,
	cfg Config,
) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Service{
		db:          d,
		credentials: credentials.NewService(d),
		resolver:    resolver.NewDBResolver(d),
		verifiers:   verifiers,
		sessions:    sessions,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *Service) CreateAccount(ctx context.Context, email, password string) (*provider.Principal, error) {
	userID, err := s.credentials.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, userID, "password")
}

func (s *Service) VerifyAccount(ctx context.Context, email, password string) (*provider.Principal, error) {
	userID, err := s.credentials.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, userID, "password")
}

func (s *Service) ExchangeFederatedToken(ctx context.Context, idToken string) (*provider.Principal, error) {
	return s.exchange(ctx, s.cfg.FederatedProvider, idToken)
}

func (s *Service) ExchangeSocialToken(ctx context.Context, accessToken string) (*provider.Principal, error) {
	return s.exchange(ctx, s.cfg.SocialProvider, accessToken)
}

func (s *Service) exchange(ctx context.Context, name, token string) (*provider.Principal, error) {
	verifier, err := s.verifiers.Get(name)
	if err != nil {
		return nil, err
	}

	identity, err := verifier.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	userID, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s identity: %w", identity.Provider, err)
	}
	return s.signIn(ctx, userID, identity.Provider)
}

// signIn issues a session record for userID and makes it the current
// principal. A previous session is revoked.
func (s *Service) signIn(ctx context.Context, userID, method string) (*provider.Principal, error) {
	user, err := s.db.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.sessions.Create(ctx, session.Session{
		SessionID: sessionID,
		UserID:    user.ID,
		Method:    method,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	p := provider.Principal{
		UID:         user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PhotoURL:    user.AvatarURL,
	}

	s.mu.Lock()
	previous := s.current
	s.current = &current{principal: p, sessionID: sessionID}
	s.mu.Unlock()

	if previous != nil {
		s.revoke(ctx, previous.sessionID)
	}

	logger.Info("backend sign-in", map[string]any{
		"component": "backend",
		"user_id":   user.ID,
		"method":    method,
	})

	out := p
	return &out, nil
}

func (s *Service) UpdateDisplayName(ctx context.Context, name string) error {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()

	if cur == nil {
		return ErrNoCurrentUser
	}

	if err := s.db.SetDisplayName(ctx, cur.principal.UID, name); err != nil {
		return err
	}

	s.mu.Lock()
	if s.current != nil && s.current.principal.UID == cur.principal.UID {
		s.current.principal.DisplayName = name
	}
	s.mu.Unlock()
	return nil
}

// SignOut revokes the current session. Signing out with nobody signed in
// is a no-op.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	cur := s.current
	s.current = nil
	s.mu.Unlock()

	if cur == nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, cur.sessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	logger.Info("backend sign-out", map[string]any{
		"component": "backend",
		"user_id":   cur.principal.UID,
	})
	return nil
}

func (s *Service) CurrentSession() *provider.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	p := s.current.principal
	return &p
}

// ActiveSession returns the session record behind the current principal.
// An expired record signs the principal out and yields nil.
func (s *Service) ActiveSession(ctx context.Context) (*session.Session, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()

	if cur == nil {
		return nil, nil
	}

	sess, err := s.sessions.Get(ctx, cur.sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !s.now().Before(sess.ExpiresAt) {
		s.mu.Lock()
		if s.current == cur {
			s.current = nil
		}
		s.mu.Unlock()
		return nil, nil
	}
	return sess, nil
}

func (s *Service) revoke(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Warn("failed to revoke previous session", map[string]any{
			"component": "backend",
			"error":     err.Error(),
		})
	}
}
