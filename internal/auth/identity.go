package auth

// Identity is the normalized record of an authenticated principal.
// Values are never edited in place; a re-authentication replaces the
// whole record. Empty optional fields mean the provider did not supply them.
type Identity struct {
	ID          string // stable, unique per provider account
	DisplayName string
	Email       string
	AvatarURL   string
}

// ExternalIdentity represents the facts a token verifier extracted from a
// provider credential. It contains facts only, no decisions.
type ExternalIdentity struct {
	Provider       string // e.g. "google", "facebook"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string
	EmailVerified  bool
	DisplayName    string
	AvatarURL      string
}
