package resolve

import "errors"

// ErrParticipantPanic wraps a panic recovered while resolving one participant.
var ErrParticipantPanic = errors.New("participant resolution panicked")
