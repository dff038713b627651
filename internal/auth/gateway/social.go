package gateway

import (
	"context"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/auth/provider"
)

// SocialSignIn runs the social SDK login on host, waits for its callback
// and exchanges the returned access token with the backend.
func (g *Gateway) SocialSignIn(ctx context.Context, host any) (auth.Outcome, error) {
	if g.social == nil {
		return fail(sourceSocial, auth.ErrProviderNotConfigured), nil
	}

	loginHost, ok := host.(provider.LoginHost)
	if !ok || loginHost == nil {
		return fail(sourceSocial, auth.ErrInvalidHostContext), nil
	}

	token, err := g.awaitSocialToken(ctx, loginHost)
	if err != nil {
		if cancelled(ctx, err) {
			return auth.Outcome{}, auth.ErrCancelled
		}
		return fail(sourceSocial, err), nil
	}

	p, err := g.backend.ExchangeSocialToken(ctx, token)
	if err != nil && cancelled(ctx, err) {
		return auth.Outcome{}, auth.ErrCancelled
	}
	return fromPrincipal(sourceBackend, p, err), nil
}

type socialResult struct {
	token string
	err   error
}

// socialCallback adapts the SDK's push callbacks onto a single-slot
// channel. Only the first result is kept.
type socialCallback struct {
	results chan socialResult
}

func (c *socialCallback) deliver(r socialResult) {
	select {
	case c.results <- r:
	default:
	}
}

func (c *socialCallback) OnSuccess(accessToken string) {
	c.deliver(socialResult{token: accessToken})
}

func (c *socialCallback) OnCancel() {
	c.deliver(socialResult{err: auth.ErrCancelled})
}

func (c *socialCallback) OnError(err error) {
	if err == nil {
		err = auth.NewProviderError(sourceSocial, nil)
	}
	c.deliver(socialResult{err: err})
}

// awaitSocialToken suspends until the SDK reports a result or ctx ends.
// The callback is unregistered before returning on every path, so a late
// SDK result never reaches an abandoned attempt.
func (g *Gateway) awaitSocialToken(ctx context.Context, host provider.LoginHost) (string, error) {
	cb := &socialCallback{results: make(chan socialResult, 1)}

	g.social.RegisterCallback(cb)
	defer g.social.UnregisterCallback(cb)

	if err := g.social.Login(host, g.scopes); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", auth.ErrCancelled
	case r := <-cb.results:
		return r.token, r.err
	}
}
