package catalog

import "errors"

var (
	// ErrAuthRequired means the catalog rejected our credentials.
	ErrAuthRequired = errors.New("catalog authentication required")
)
