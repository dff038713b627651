package keycloak

import (
	"context"
	"errors"
	"fmt"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

const providerName = "keycloak"

// Verifier validates id tokens issued by a Keycloak realm. It is an
// alternative federated verifier for deployments that broker Google
// through Keycloak.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// New initializes a verifier using discovery.
// issuer must be the realm issuer URL, e.g.
// http://localhost:8081/realms/handyman
func New(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	if issuer == "" || clientID == "" {
		return nil, errors.New("keycloak oidc config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init keycloak oidc provider: %w", err)
	}

	return &Verifier{
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Name returns the provider identifier used by the registry.
func (v *Verifier) Name() string {
	return providerName
}

// VerifyToken returns a normalized identity.
// This method MUST NOT create users, sessions, or perform linking logic.
func (v *Verifier) VerifyToken(ctx context.Context, rawIDToken string) (*auth.ExternalIdentity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Error("keycloak id_token verification failed", map[string]any{
			"component": "keycloak",
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("keycloak id_token verification failed: %w", err)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		EmailVerified     bool   `json:"email_verified"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Picture           string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("keycloak id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("keycloak id_token missing required claims")
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}

	logger.Info("keycloak oidc verified", map[string]any{
		"component":          "keycloak",
		"issuer":             idToken.Issuer,
		"email_verified":     claims.EmailVerified,
		"preferred_username": claims.PreferredUsername,
	})

	return &auth.ExternalIdentity{
		Provider:       providerName,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		DisplayName:    name,
		AvatarURL:      claims.Picture,
	}, nil
}
