package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProvider is returned when a ProviderConfig fails validation.
	ErrInvalidProvider = errors.New("oauth: invalid provider config")

	// ErrConfig is returned when the resolved settings lack a required key.
	// It is always raised before any network call.
	ErrConfig = errors.New("oauth: missing required setting")

	// ErrCallback is returned when the provider reports an error in the callback
	// or the callback carries no authorization code.
	ErrCallback = errors.New("oauth: callback rejected")

	// ErrStateMismatch is returned when the callback state does not match the issued one.
	ErrStateMismatch = errors.New("oauth: state mismatch")

	// ErrTokenExchange is returned when the authorization code cannot be exchanged.
	ErrTokenExchange = errors.New("oauth: token exchange failed")

	// ErrProfileFetch is returned when the user profile cannot be retrieved.
	ErrProfileFetch = errors.New("oauth: profile fetch failed")

	// ErrEmailNotVerified is returned when the OAuth provider reports
	// that the user's email is not verified.
	ErrEmailNotVerified = errors.New("oauth: email not verified")

	// ErrNilResponse is returned when the transport returns a nil response.
	ErrNilResponse = errors.New("oauth: nil response from provider")
)

// FlowError reports the step at which an authorization flow failed.
// Err wraps one of the sentinel errors above, so errors.Is works through it.
type FlowError struct {
	Step Step
	Err  error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("oauth: %s: %v", e.Step, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// CallbackError carries the error reported by the provider on the redirect back.
type CallbackError struct {
	Code        string // "error" query parameter
	Description string // "error_description" query parameter
	URI         string // "error_uri" query parameter
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("provider error %q: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("provider error %q", e.Code)
}

// Is reports ErrCallback as a match so callers can test the kind without errors.As.
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallback
}

// ResponseError describes an unsuccessful HTTP exchange with the provider.
type ResponseError struct {
	StatusCode  int
	Code        string // provider "error" field, if any
	Description string // provider "error_description" or "message" field, if any
}

func (e *ResponseError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("status=%d error=%s: %s", e.StatusCode, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("status=%d error=%s", e.StatusCode, e.Code)
	case e.Description != "":
		return fmt.Sprintf("status=%d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("status=%d", e.StatusCode)
}
