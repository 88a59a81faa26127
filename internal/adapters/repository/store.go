// Package repository persists build records between runs so the resolver can
// start from a warm corpus.
package repository

import (
	"context"
	"time"

	"github.com/okian/setres/internal/domain/build"
)

// Store provides read/write access to cached build records.
type Store interface {
	// Put inserts or replaces records, keyed by identity, source and format.
	// Records without an ID are sealed first.
	Put(ctx context.Context, records []build.Record, cachedAt time.Time) error

	// ByFormat returns every record of gen whose format matches. An empty
	// format returns the whole generation. Records come back in insertion
	// order.
	ByFormat(ctx context.Context, gen int, format string) ([]build.Record, error)

	// BySource returns every record of gen carrying source.
	BySource(ctx context.Context, gen int, source build.Source) ([]build.Record, error)

	// Prune drops records cached before cutoff and returns how many went.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of cached records.
	Count(ctx context.Context) int
}

type key struct {
	id     string
	source build.Source
	format string
}

func keyOf(r *build.Record) key {
	return key{id: r.ID, source: r.Source, format: r.Format}
}

func sealed(records []build.Record) []build.Record {
	out := make([]build.Record, len(records))
	for i, r := range records {
		if r.ID == "" {
			r = r.Seal()
		}
		out[i] = r
	}
	return out
}
