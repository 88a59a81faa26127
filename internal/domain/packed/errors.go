package packed

import "errors"

// Sentinel kinds for unpack errors.
var (
	ErrMalformed      = errors.New("malformed packed team")
	ErrUnknownSpecies = errors.New("unknown species")
)
