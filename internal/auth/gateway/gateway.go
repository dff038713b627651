// Package gateway normalizes every sign-in mechanism into an auth.Outcome.
//
// No error raised by a broker, SDK or backend escapes this package: each one
// becomes a failed outcome carrying the provider's message. The only error
// the sign-in methods return is auth.ErrCancelled.
package gateway

import (
	"context"
	"errors"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/auth/provider"
	"handyman-auth/internal/logger"
)

const (
	sourceBroker  = "credential_broker"
	sourceSocial  = "social_login"
	sourceBackend = "backend"
)

var defaultScopes = []string{"email", "public_profile"}

// Gateway is the facade over the credential broker, the social login SDK
// and the backend authentication service.
type Gateway struct {
	broker  provider.CredentialBroker
	social  provider.SocialLogin
	backend provider.Backend

	credentialOpts provider.CredentialOptions
	scopes         []string
}

type Option func(*Gateway)

// WithServerClientID sets the audience requested from the credential broker.
func WithServerClientID(clientID string) Option {
	return func(g *Gateway) {
		g.credentialOpts.ServerClientID = clientID
	}
}

// WithScopes overrides the permissions requested from the social SDK.
func WithScopes(scopes ...string) Option {
	return func(g *Gateway) {
		g.scopes = append([]string(nil), scopes...)
	}
}

// New creates a Gateway. broker and social may be nil when that sign-in
// method is not configured; the matching operation then fails cleanly.
func New(
	broker provider.CredentialBroker,
	social provider.SocialLogin,
	backend provider.Backend,
	opts ...Option,
) *Gateway {
	g := &Gateway{
		broker:  broker,
		social:  social,
		backend: backend,
		credentialOpts: provider.CredentialOptions{
			FilterByAuthorizedAccounts: true,
			AutoSelect:                 true,
		},
		scopes: defaultScopes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CurrentIdentity returns the principal the backend already holds a session
// for, or nil.
func (g *Gateway) CurrentIdentity() *auth.Identity {
	p := g.backend.CurrentSession()
	if p == nil || p.UID == "" {
		return nil
	}
	id := toIdentity(p)
	return &id
}

// SignOut clears the backend's local session. It always succeeds.
func (g *Gateway) SignOut(ctx context.Context) {
	if err := g.backend.SignOut(ctx); err != nil {
		logger.Warn("backend sign-out failed", map[string]any{
			"component": "gateway",
			"error":     err.Error(),
		})
	}
}

// fromPrincipal turns a backend result into an outcome.
func fromPrincipal(source string, p *provider.Principal, err error) auth.Outcome {
	if err != nil {
		return fail(source, err)
	}
	if p == nil {
		return fail(source, auth.ErrNoPrincipal)
	}
	return auth.Succeeded(toIdentity(p))
}

func fail(source string, err error) auth.Outcome {
	logger.Warn("sign-in step failed", map[string]any{
		"component": "gateway",
		"source":    source,
		"error":     err.Error(),
	})
	var pe *auth.ProviderError
	if errors.As(err, &pe) {
		return auth.Failed(pe)
	}
	return auth.Failed(auth.NewProviderError(source, err))
}

func toIdentity(p *provider.Principal) auth.Identity {
	return auth.Identity{
		ID:          p.UID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		AvatarURL:   p.PhotoURL,
	}
}
