package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrClosed  = errors.New("store closed")
	ErrInvalid = errors.New("invalid record")
)
