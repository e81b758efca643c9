package profile

import "errors"

var (
	// ErrMalformed is returned when a body cannot be parsed in the requested format.
	ErrMalformed = errors.New("profile: malformed body")

	// ErrNotObject is returned when a JSON body is valid but not an object.
	ErrNotObject = errors.New("profile: body is not an object")

	// ErrUnknownFormat is returned when a format name is not recognized.
	ErrUnknownFormat = errors.New("profile: unknown format")
)
