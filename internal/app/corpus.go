package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/setres/internal/adapters/repository"
	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/resolve"
)

// CorpusProvider hands out the records a pass resolves against. The state
// tells a corpus that has not loaded yet apart from one that loaded empty.
type CorpusProvider interface {
	Records(ctx context.Context, gen int, format string) ([]build.Record, resolve.CorpusState)
}

// MemoryCorpus keeps records per generation in memory. A generation counts
// as loaded once Load was called for it, even with no records.
type MemoryCorpus struct {
	mu      sync.RWMutex
	loaded  map[int]bool
	records map[int][]build.Record
}

// NewMemoryCorpus creates an empty, unloaded corpus.
func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{
		loaded:  make(map[int]bool),
		records: make(map[int][]build.Record),
	}
}

// Load replaces the records of gen and marks it loaded.
func (c *MemoryCorpus) Load(gen int, records []build.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[gen] = append([]build.Record(nil), records...)
	c.loaded[gen] = true
}

// Add appends records to their generations without changing load state.
// Records with the same identity and source replace the earlier copy.
func (c *MemoryCorpus) Add(records ...build.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			r = r.Seal()
		}
		list := c.records[r.Gen]
		replaced := false
		for i := range list {
			if list[i].ID == r.ID && list[i].Source == r.Source && list[i].Format == r.Format {
				list[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, r)
		}
		c.records[r.Gen] = list
	}
}

// Records implements CorpusProvider. Every format of the generation is
// returned; narrowing is the selector's job.
func (c *MemoryCorpus) Records(_ context.Context, gen int, _ string) ([]build.Record, resolve.CorpusState) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := resolve.CorpusNotLoaded
	if c.loaded[gen] {
		state = resolve.CorpusLoaded
	}
	return append([]build.Record(nil), c.records[gen]...), state
}

// Size returns the number of records across generations.
func (c *MemoryCorpus) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, recs := range c.records {
		n += len(recs)
	}
	return n
}

// LoadFrom reads one generation from store and loads it.
func (c *MemoryCorpus) LoadFrom(ctx context.Context, store repository.Store, gen int) (int, error) {
	recs, err := store.ByFormat(ctx, gen, "")
	if err != nil {
		return 0, fmt.Errorf("load gen %d: %w", gen, err)
	}
	c.Load(gen, recs)
	return len(recs), nil
}

// split sorts records into the three pools a snapshot carries.
func split(records []build.Record) (corpus, usage, sheets []build.Record) {
	for _, r := range records {
		switch r.Source {
		case build.SourceUsage:
			usage = append(usage, r)
		case build.SourceSheet:
			sheets = append(sheets, r)
		default:
			corpus = append(corpus, r)
		}
	}
	return corpus, usage, sheets
}
