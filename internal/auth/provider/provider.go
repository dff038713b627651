package provider

import (
	"context"

	"handyman-auth/internal/auth"
)

// TypeGoogleIDToken is the credential type a federated broker must return.
const TypeGoogleIDToken = "google_id_token"

// CredentialOptions controls how a broker selects a credential.
type CredentialOptions struct {
	// FilterByAuthorizedAccounts restricts candidates to accounts that
	// already authorized this client.
	FilterByAuthorizedAccounts bool
	// ServerClientID is the audience the issued id token must carry.
	ServerClientID string
	// AutoSelect picks the account without prompting when only one matches.
	AutoSelect bool
}

// Credential is an opaque credential handed back by a broker.
type Credential struct {
	Type string
	Data map[string]string
}

// CredentialBroker obtains a credential from the platform account store.
type CredentialBroker interface {
	Request(ctx context.Context, opts CredentialOptions) (Credential, error)
}

// LoginHost is a host able to present a social login flow and route its
// redirect back to the SDK that started it.
type LoginHost interface {
	Open(authURL string) error
}

// LoginCallback receives exactly one result of a social login flow.
type LoginCallback interface {
	OnSuccess(accessToken string)
	OnCancel()
	OnError(err error)
}

// SocialLogin is a callback-driven social login SDK.
type SocialLogin interface {
	RegisterCallback(cb LoginCallback)
	Login(host LoginHost, scopes []string) error
	UnregisterCallback(cb LoginCallback)
}

// Principal is the backend's view of the signed-in user.
type Principal struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Backend is the authentication service every sign-in path ends at.
// Errors carry displayable messages that callers may forward verbatim.
type Backend interface {
	CreateAccount(ctx context.Context, email, password string) (*Principal, error)
	VerifyAccount(ctx context.Context, email, password string) (*Principal, error)
	ExchangeFederatedToken(ctx context.Context, idToken string) (*Principal, error)
	ExchangeSocialToken(ctx context.Context, accessToken string) (*Principal, error)
	UpdateDisplayName(ctx context.Context, name string) error
	SignOut(ctx context.Context) error
	// CurrentSession never blocks on I/O and never fails.
	CurrentSession() *Principal
}

// TokenVerifier validates a provider token and returns the identity facts
// it asserts. Implementations must not create users or sessions.
type TokenVerifier interface {
	// Name returns the provider identifier (e.g. "google", "facebook").
	Name() string

	VerifyToken(ctx context.Context, token string) (*auth.ExternalIdentity, error)
}
