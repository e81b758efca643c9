package authflow

import "errors"

var (
	ErrUnknownProvider = errors.New("authflow: unknown provider")
	ErrStateNotFound   = errors.New("authflow: no pending authorization state")
	ErrInvalidState    = errors.New("authflow: invalid authorization state")
	ErrNoSecret        = errors.New("authflow: state secret must be at least 32 bytes")
	ErrNilClient       = errors.New("authflow: redis client is nil")
)
