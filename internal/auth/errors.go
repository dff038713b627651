package auth

import "errors"

var (
	// ErrInvalidCredentialType is returned when the credential broker hands
	// back a credential that is not a federated id token.
	ErrInvalidCredentialType = errors.New("invalid credential type")

	// ErrInvalidHostContext is returned when social sign-in is started with a
	// host that cannot open the login UI and receive its redirect.
	ErrInvalidHostContext = errors.New("host context cannot present the social login flow")

	// ErrCancelled marks an attempt the user (or the owning scope) abandoned.
	// It is reported as an error, never as a failure outcome.
	ErrCancelled = errors.New("sign-in cancelled")

	ErrNoPrincipal           = errors.New("backend returned no signed-in user")
	ErrProviderNotConfigured = errors.New("sign-in provider is not configured")
)

// ProviderError carries a failure raised by a broker, SDK or backend.
// Message is the provider's displayable text and is forwarded verbatim.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err, keeping its message as the displayable text.
func NewProviderError(provider string, err error) *ProviderError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ProviderError{Provider: provider, Message: msg, Err: err}
}
