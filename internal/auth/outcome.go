package auth

import "errors"

// defaultFailure is used when a provider fails without any message, so a
// failed outcome always has something to display.
const defaultFailure = "authentication failed"

var errMissingID = errors.New("signed-in user has no identifier")

// Outcome is the result of a sign-in attempt: exactly one of an Identity or
// a failure. The zero value is a failure.
type Outcome struct {
	identity *Identity
	err      error
}

// Succeeded returns a success outcome. An identity without an ID is not a
// usable principal and yields a failure instead.
func Succeeded(identity Identity) Outcome {
	if identity.ID == "" {
		return Failed(errMissingID)
	}
	return Outcome{identity: &identity}
}

// Failed returns a failure outcome for err.
func Failed(err error) Outcome {
	if err == nil || err.Error() == "" {
		err = &ProviderError{Message: defaultFailure, Err: err}
	}
	return Outcome{err: err}
}

// OK reports whether the outcome carries an identity.
func (o Outcome) OK() bool {
	return o.identity != nil
}

// Identity returns the signed-in principal, or nil on failure.
func (o Outcome) Identity() *Identity {
	return o.identity
}

// Failure returns the displayable failure text, or "" on success.
func (o Outcome) Failure() string {
	if o.identity != nil {
		return ""
	}
	if o.err == nil {
		return defaultFailure
	}
	return o.err.Error()
}

// Err returns the underlying failure for errors.Is / errors.As inspection.
func (o Outcome) Err() error {
	if o.identity != nil {
		return nil
	}
	if o.err == nil {
		return &ProviderError{Message: defaultFailure}
	}
	return o.err
}
