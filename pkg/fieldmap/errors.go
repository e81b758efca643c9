package fieldmap

import "errors"

var (
	// ErrEmptyPath is returned when a mapping has an empty source or destination path.
	ErrEmptyPath = errors.New("fieldmap: empty path")

	// ErrInvalidTable is returned when a YAML node cannot be decoded into a Table.
	ErrInvalidTable = errors.New("fieldmap: invalid mapping table")
)
