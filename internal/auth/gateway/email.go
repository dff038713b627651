package gateway

import (
	"context"

	"handyman-auth/internal/auth"
)

// EmailSignUp creates a backend account, applies the display name and
// returns the resulting identity.
func (g *Gateway) EmailSignUp(ctx context.Context, email, password, displayName string) (auth.Outcome, error) {
	p, err := g.backend.CreateAccount(ctx, email, password)
	if err != nil {
		if cancelled(ctx, err) {
			return auth.Outcome{}, auth.ErrCancelled
		}
		return fail(sourceBackend, err), nil
	}
	if p == nil {
		return fail(sourceBackend, auth.ErrNoPrincipal), nil
	}

	if err := g.backend.UpdateDisplayName(ctx, displayName); err != nil {
		if cancelled(ctx, err) {
			return auth.Outcome{}, auth.ErrCancelled
		}
		return fail(sourceBackend, err), nil
	}

	// Re-read the session so the updated profile is used when the backend
	// already reflects it.
	if current := g.backend.CurrentSession(); current != nil && current.UID == p.UID {
		p = current
	}

	id := toIdentity(p)
	if id.DisplayName == "" {
		id.DisplayName = displayName
	}
	return auth.Succeeded(id), nil
}

// EmailSignIn verifies existing credentials with the backend.
func (g *Gateway) EmailSignIn(ctx context.Context, email, password string) (auth.Outcome, error) {
	p, err := g.backend.VerifyAccount(ctx, email, password)
	if err != nil && cancelled(ctx, err) {
		return auth.Outcome{}, auth.ErrCancelled
	}
	return fromPrincipal(sourceBackend, p, err), nil
}
