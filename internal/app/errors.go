package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrUnknownSide        = errors.New("unknown side")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrInvalidRoster      = errors.New("invalid roster")
	ErrNoRecords          = errors.New("no records")
)
