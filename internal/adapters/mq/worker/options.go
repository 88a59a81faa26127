package worker

import (
	"time"

	"github.com/okian/setres/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithCoalesceWindow sets how long the worker waits for further triggers
// before running a pass. Zero runs immediately.
func WithCoalesceWindow(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d >= 0 {
			w.window = d
		}
	}
}
