package dex

import "errors"

// Sentinel kinds for dictionary errors.
var (
	ErrLoad = errors.New("load dex failed")
)
