package gateway

import (
	"context"
	"errors"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/auth/provider"
)

// FederatedSignIn obtains an id token from the credential broker and
// exchanges it with the backend.
func (g *Gateway) FederatedSignIn(ctx context.Context) (auth.Outcome, error) {
	if g.broker == nil {
		return fail(sourceBroker, auth.ErrProviderNotConfigured), nil
	}

	cred, err := g.broker.Request(ctx, g.credentialOpts)
	if err != nil {
		if cancelled(ctx, err) {
			return auth.Outcome{}, auth.ErrCancelled
		}
		return fail(sourceBroker, err), nil
	}

	idToken := cred.Data["id_token"]
	if cred.Type != provider.TypeGoogleIDToken || idToken == "" {
		return fail(sourceBroker, auth.ErrInvalidCredentialType), nil
	}

	p, err := g.backend.ExchangeFederatedToken(ctx, idToken)
	if err != nil && cancelled(ctx, err) {
		return auth.Outcome{}, auth.ErrCancelled
	}
	return fromPrincipal(sourceBackend, p, err), nil
}

// cancelled reports whether err stems from the attempt being abandoned
// rather than from a provider failure.
func cancelled(ctx context.Context, err error) bool {
	if errors.Is(err, auth.ErrCancelled) {
		return true
	}
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}
