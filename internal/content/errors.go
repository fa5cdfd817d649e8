package content

import "errors"

// Resolution failures are explicit result variants, not panics. A dangling
// relation inside a projection degrades to null instead of surfacing these;
// only top-level lookups return them to the caller.
var (
	ErrNotFound     = errors.New("content not found")
	ErrForbidden    = errors.New("content not readable")
	ErrInvalidQuery = errors.New("invalid query")
	ErrUnavailable  = errors.New("content store unavailable")
)
