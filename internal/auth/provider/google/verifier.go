package google

import (
	"context"
	"errors"
	"fmt"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	providerName = "google"
	issuerURL    = "https://accounts.google.com"
)

// Verifier validates Google id tokens. It returns identity facts only; no
// user or session decisions are made here.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers Google's signing keys and accepts id tokens issued
// for clientID.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return &Verifier{
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewVerifierWithKeySet builds a verifier against a fixed issuer and key
// set, without discovery.
func NewVerifierWithKeySet(issuer, clientID string, keys oidc.KeySet) *Verifier {
	return &Verifier{
		verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID}),
	}
}

// Name returns the provider identifier used by the registry.
func (v *Verifier) Name() string {
	return providerName
}

func (v *Verifier) VerifyToken(ctx context.Context, rawIDToken string) (*auth.ExternalIdentity, error) {
	if rawIDToken == "" {
		return nil, errors.New("google id_token is empty")
	}

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("google id_token missing required claims")
	}

	logger.Info("google oidc verified", map[string]any{
		"component":      "google",
		"issuer":         idToken.Issuer,
		"email_present":  claims.Email != "",
		"email_verified": claims.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.ExternalIdentity{
		Provider:       providerName,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		DisplayName:    claims.Name,
		AvatarURL:      claims.Picture,
	}, nil
}
