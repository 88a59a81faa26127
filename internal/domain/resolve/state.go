package resolve

// State is the orchestrator phase.
type State int32

// Phases of a resolution pass.
const (
	StateIdle State = iota
	StateScanning
	StateResolving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// CorpusState tells a corpus that has not arrived yet apart from one that
// arrived empty.
type CorpusState int

// Corpus readiness.
const (
	CorpusNotLoaded CorpusState = iota
	CorpusLoaded
)

func (c CorpusState) String() string {
	if c == CorpusLoaded {
		return "loaded"
	}
	return "not-loaded"
}
