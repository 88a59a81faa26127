package service

import (
	"time"

	"github.com/okian/setres/internal/adapters/repository"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDex sets the name dictionary. The bundled one is used otherwise.
func WithDex(d *dex.Dex) Option {
	return func(s *Service) {
		if d != nil {
			s.dex = d
		}
	}
}

// WithCorpus sets the corpus the service loads into and resolves from.
func WithCorpus(c *MemoryCorpus) Option {
	return func(s *Service) {
		if c != nil {
			s.corpus = c
		}
	}
}

// WithStore sets the persistent record cache.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithQueueSize sets how many distinct triggers may be pending.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCoalesceWindow sets how long the worker waits for further triggers.
func WithCoalesceWindow(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.window = d
		}
	}
}

// WithDedupeSize bounds the remembered participant fingerprints.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFormatFamilies adds format aliases on top of the built-in ones.
func WithFormatFamilies(families map[string]string) Option {
	return func(s *Service) {
		s.families = families
	}
}

// WithDefaultFormat sets the format used until a roster names one.
func WithDefaultFormat(format string) Option {
	return func(s *Service) {
		if format != "" {
			s.format = format
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
