package facebook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"handyman-auth/internal/auth/provider"
	"handyman-auth/internal/logger"
	"handyman-auth/internal/utils"

	"golang.org/x/oauth2"
	fboauth "golang.org/x/oauth2/facebook"
)

const defaultLoginTTL = 10 * time.Minute

var ErrUnknownState = errors.New("facebook login state is unknown or expired")

type pendingLogin struct {
	owner     provider.LoginCallback
	verifier  string
	scopes    []string
	expiresAt time.Time
}

// LoginManager drives the Facebook OAuth dialog. Login opens the dialog on a
// host and binds it to the most recently registered callback; the redirect
// lands in HandleRedirect, which reports the result to that callback only.
// Unregistering a callback abandons its open dialogs.
type LoginManager struct {
	oauthConfig oauth2.Config
	ttl         time.Duration
	now         func() time.Time

	mu        sync.Mutex
	callbacks []provider.LoginCallback
	pending   map[string]pendingLogin
}

type Option func(*LoginManager)

// WithEndpoint overrides the Facebook OAuth endpoint.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(m *LoginManager) { m.oauthConfig.Endpoint = ep }
}

// WithLoginTTL bounds how long a dialog may stay open.
func WithLoginTTL(d time.Duration) Option {
	return func(m *LoginManager) { m.ttl = d }
}

func NewLoginManager(appID, appSecret, redirectURL string, opts ...Option) (*LoginManager, error) {
	if appID == "" || appSecret == "" || redirectURL == "" {
		return nil, errors.New("facebook oauth config missing required fields")
	}

	m := &LoginManager{
		oauthConfig: oauth2.Config{
			ClientID:     appID,
			ClientSecret: appSecret,
			RedirectURL:  redirectURL,
			Endpoint:     fboauth.Endpoint,
		},
		ttl:     defaultLoginTTL,
		now:     time.Now,
		pending: make(map[string]pendingLogin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *LoginManager) RegisterCallback(cb provider.LoginCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func (m *LoginManager) UnregisterCallback(cb provider.LoginCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = slices.DeleteFunc(m.callbacks, func(c provider.LoginCallback) bool {
		return c == cb
	})
	for state, p := range m.pending {
		if p.owner == cb {
			delete(m.pending, state)
		}
	}
}

// Login opens the Facebook dialog with PKCE on host.
func (m *LoginManager) Login(host provider.LoginHost, scopes []string) error {
	if host == nil {
		return errors.New("facebook login requires a host")
	}

	state, err := utils.RandomString(24)
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	m.mu.Lock()
	m.expireLocked()
	var owner provider.LoginCallback
	if n := len(m.callbacks); n > 0 {
		owner = m.callbacks[n-1]
	}
	m.pending[state] = pendingLogin{
		owner:     owner,
		verifier:  verifier,
		scopes:    slices.Clone(scopes),
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	cfg := m.oauthConfig
	cfg.Scopes = scopes
	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	if err := host.Open(authURL); err != nil {
		m.mu.Lock()
		delete(m.pending, state)
		m.mu.Unlock()
		return fmt.Errorf("facebook login dialog failed to open: %w", err)
	}

	logger.Info("facebook login started", map[string]any{
		"component": "facebook",
		"scopes":    scopes,
	})
	return nil
}

// Redirect carries the query parameters Facebook appends to the redirect URL.
type Redirect struct {
	State            string
	Code             string
	Error            string
	ErrorReason      string
	ErrorDescription string
}

// HandleRedirect completes a dialog started by Login. A redirect for an
// unknown, expired or abandoned state returns ErrUnknownState and reaches
// no callback.
func (m *LoginManager) HandleRedirect(ctx context.Context, r Redirect) error {
	m.mu.Lock()
	m.expireLocked()
	p, ok := m.pending[r.State]
	delete(m.pending, r.State)
	m.mu.Unlock()

	if !ok {
		return ErrUnknownState
	}

	switch {
	case r.Error == "access_denied" || r.ErrorReason == "user_denied":
		logger.Info("facebook login cancelled", map[string]any{"component": "facebook"})
		m.deliver(p.owner, func(cb provider.LoginCallback) { cb.OnCancel() })
		return nil

	case r.Error != "":
		msg := r.ErrorDescription
		if msg == "" {
			msg = r.Error
		}
		loginErr := fmt.Errorf("facebook login failed: %s", msg)
		m.deliver(p.owner, func(cb provider.LoginCallback) { cb.OnError(loginErr) })
		return nil

	case r.Code == "":
		loginErr := errors.New("facebook login returned no authorization code")
		m.deliver(p.owner, func(cb provider.LoginCallback) { cb.OnError(loginErr) })
		return nil
	}

	cfg := m.oauthConfig
	cfg.Scopes = p.scopes
	tok, err := cfg.Exchange(ctx, r.Code, oauth2.VerifierOption(p.verifier))
	if err != nil {
		logger.Error("facebook token exchange failed", map[string]any{
			"component": "facebook",
			"error":     err.Error(),
		})
		exchangeErr := fmt.Errorf("facebook token exchange failed: %w", err)
		m.deliver(p.owner, func(cb provider.LoginCallback) { cb.OnError(exchangeErr) })
		return nil
	}

	m.deliver(p.owner, func(cb provider.LoginCallback) { cb.OnSuccess(tok.AccessToken) })
	return nil
}

// Pending returns the number of dialogs awaiting a redirect.
func (m *LoginManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	return len(m.pending)
}

// deliver runs fn on owner if it is still registered.
func (m *LoginManager) deliver(owner provider.LoginCallback, fn func(provider.LoginCallback)) {
	if owner == nil {
		return
	}

	m.mu.Lock()
	registered := slices.Contains(m.callbacks, owner)
	m.mu.Unlock()

	if registered {
		fn(owner)
	}
}

func (m *LoginManager) expireLocked() {
	now := m.now()
	for state, p := range m.pending {
		if !now.Before(p.expiresAt) {
			delete(m.pending, state)
		}
	}
}
