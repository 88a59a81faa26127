// Package service owns the live roster and drives automatic build
// resolution. It implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/setres/internal/adapters/mq/queue"
	"github.com/okian/setres/internal/adapters/mq/worker"
	"github.com/okian/setres/internal/adapters/repository"
	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dedupe"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/packed"
	"github.com/okian/setres/internal/domain/pool"
	"github.com/okian/setres/internal/domain/preset"
	"github.com/okian/setres/internal/domain/resolve"
	"github.com/okian/setres/internal/domain/setparse"
	"github.com/okian/setres/pkg/logger"
	"github.com/okian/setres/pkg/metrics"
)

const (
	defaultQueueSize  = 1
	defaultWindow     = 50 * time.Millisecond
	defaultDedupeSize = 4096
	defaultFormat     = "gen9ou"

	workerShutdownTimeout = 5 * time.Second
)

// PassSummary describes the most recent pass.
type PassSummary struct {
	ID            string        `json:"id"`
	Reason        string        `json:"reason"`
	At            time.Time     `json:"at"`
	Duration      time.Duration `json:"duration"`
	Resolved      int           `json:"resolved"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	Patches       int           `json:"patches"`
	Rescan        bool          `json:"rescan"`
	SheetsApplied bool          `json:"sheetsApplied"`
}

// Service implements the API dependencies for the resolver.
type Service struct {
	mu sync.RWMutex

	// Core components
	dex     *dex.Dex
	corpus  *MemoryCorpus
	store   repository.Store
	engine  *resolve.Engine
	queue   queue.Queue
	worker  *worker.InMemoryWorker
	cancel  context.CancelFunc
	started bool

	// Configuration
	queueSize  int
	window     time.Duration
	dedupeSize int
	families   map[string]string

	// Roster state; written only under mu.
	format        string
	sides         []resolve.Side
	sheetsLatched bool
	rescanPending bool
	last          PassSummary

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:  defaultQueueSize,
		window:     defaultWindow,
		dedupeSize: defaultDedupeSize,
		format:     defaultFormat,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dex == nil {
		s.dex = dex.Bundled()
	}
	if s.corpus == nil {
		s.corpus = NewMemoryCorpus()
	}
	return s
}

// Start builds the engine and starts the pass worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting resolver service...")

	s.engine = resolve.NewEngine(
		pool.New(s.dex, pool.WithFamilies(s.families)),
		resolve.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithBufferSize(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithName("passes"),
		worker.WithCoalesceWindow(s.window),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "resolver service started",
		logger.Int("queueSize", s.queueSize),
		logger.Duration("coalesceWindow", s.window),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("format", s.format),
	)
	return nil
}

// Stop gracefully shuts down the service. A pass in flight finishes first.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	w, q, cancel := s.worker, s.queue, s.cancel
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping resolver service...")

	_ = q.Close()
	shutdownCtx, done := context.WithTimeout(ctx, workerShutdownTimeout)
	defer done()
	if err := w.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker did not stop in time", logger.Error(err))
	}
	cancel()

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.logger.Info(ctx, "resolver service stopped")
}

// Trigger asks for a pass. Bursts coalesce into one.
func (s *Service) Trigger(ctx context.Context, reason string) bool {
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		return false
	}
	return q.Enqueue(ctx, queue.Trigger{Reason: reason})
}

// SetRoster replaces the roster and starts a new battle: the sheet latch
// reopens and remembered fingerprints are dropped.
func (s *Service) SetRoster(ctx context.Context, format string, sides []resolve.Side) error {
	seen := make(map[string]bool, len(sides))
	for _, side := range sides {
		if side.Key == "" || seen[side.Key] {
			return fmt.Errorf("%w: side key %q", ErrInvalidRoster, side.Key)
		}
		seen[side.Key] = true
		keys := make(map[string]bool, len(side.Participants))
		for _, p := range side.Participants {
			if p == nil || p.Key == "" || keys[p.Key] {
				return fmt.Errorf("%w: participant key on side %q", ErrInvalidRoster, side.Key)
			}
			keys[p.Key] = true
		}
	}

	s.mu.Lock()
	if format != "" {
		s.format = format
	}
	s.sides = cloneSides(sides)
	s.sheetsLatched = false
	engine := s.engine
	n := s.participantsLocked()
	s.mu.Unlock()

	if engine != nil {
		engine.Forget(ctx)
	}
	metrics.UpdateSheetsLatched(false)
	metrics.UpdateRosterParticipants(n)
	s.Trigger(ctx, "roster")
	return nil
}

// UpsertParticipant adds p to side or replaces the participant with the
// same key.
func (s *Service) UpsertParticipant(ctx context.Context, side string, p preset.Participant) error {
	if p.Key == "" {
		return fmt.Errorf("%w: empty participant key", ErrInvalidRoster)
	}
	s.mu.Lock()
	idx := s.sideLocked(side)
	if idx < 0 {
		s.sides = append(s.sides, resolve.Side{Key: side})
		idx = len(s.sides) - 1
	}
	sd := &s.sides[idx]
	replaced := false
	for i, cur := range sd.Participants {
		if cur.Key == p.Key {
			sd.Participants[i] = p.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		sd.Participants = append(sd.Participants, p.Clone())
	}
	n := s.participantsLocked()
	s.mu.Unlock()

	metrics.UpdateRosterParticipants(n)
	s.Trigger(ctx, "participant")
	return nil
}

// Reveal merges newly observed facts into a participant. Facts only ever
// grow; a pass is triggered when something new was learned.
func (s *Service) Reveal(ctx context.Context, side, key string, r preset.Reveals) (bool, error) {
	s.mu.Lock()
	p, err := s.participantLocked(side, key)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	changed := p.Revealed.Merge(r)
	s.mu.Unlock()

	if changed {
		s.Trigger(ctx, "reveal")
	}
	return changed, nil
}

// ChangeForme records a forme change or transformation. An empty
// transformed species ends a transformation.
func (s *Service) ChangeForme(ctx context.Context, side, key, species, transformed string) error {
	s.mu.Lock()
	p, err := s.participantLocked(side, key)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if species != "" {
		p.Species = species
	}
	p.TransformedSpecies = transformed
	s.mu.Unlock()

	s.Trigger(ctx, "forme")
	return nil
}

// Participant returns a copy of one participant.
func (s *Service) Participant(_ context.Context, side, key string) (preset.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.participantLocked(side, key)
	if err != nil {
		return preset.Participant{}, err
	}
	return *p.Clone(), nil
}

// Roster returns a copy of the current roster and its format.
func (s *Service) Roster(_ context.Context) (string, []resolve.Side) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format, cloneSides(s.sides)
}

// LastPass returns the summary of the most recent pass.
func (s *Service) LastPass() PassSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunPass implements worker.Runner. The roster is copied under the lock,
// resolved without it, and the resulting patches are applied in one locked
// step.
func (s *Service) RunPass(ctx context.Context, t queue.Trigger) error {
	start := time.Now()
	id := uuid.NewString()

	s.mu.RLock()
	rc := resolve.Context{
		Gen:    dex.GenFromFormat(s.format),
		Format: s.format,
		Sides:  cloneSides(s.sides),
	}
	latched := s.sheetsLatched
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil {
		return ErrNotStarted
	}
	gen := rc.Gen
	if gen == 0 {
		gen = dex.DefaultGen
	}
	records, state := s.corpus.Records(ctx, gen, rc.Format)
	corpus, usage, sheets := split(records)
	snap := resolve.Snapshot{Corpus: state, Records: corpus, Usage: usage, Sheets: sheets}
	metrics.UpdateCorpusRecords(len(corpus))

	res := engine.Pass(ctx, rc, snap, latched)
	for _, f := range res.Failures {
		s.logger.Error(ctx, "participant failed to resolve",
			logger.String("pass", id),
			logger.String("side", f.Side),
			logger.String("key", f.Key),
			logger.Error(f.Err),
		)
	}

	applied := s.apply(res)
	elapsed := time.Since(start)

	summary := PassSummary{
		ID:            id,
		Reason:        t.Reason,
		At:            start,
		Duration:      elapsed,
		Resolved:      res.Resolved,
		Skipped:       res.Skipped,
		Failed:        len(res.Failures),
		Patches:       applied,
		Rescan:        res.Rescan,
		SheetsApplied: res.SheetsApplied,
	}
	s.mu.Lock()
	s.last = summary
	if res.SheetsApplied {
		s.sheetsLatched = true
	}
	if res.Rescan {
		s.rescanPending = true
	}
	s.mu.Unlock()

	outcome := "ok"
	switch {
	case res.Err != nil:
		outcome = "cancelled"
	case res.Rescan:
		outcome = "rescan"
	case len(res.Failures) > 0:
		outcome = "partial"
	}
	metrics.RecordPass(outcome, float64(elapsed.Milliseconds()))
	metrics.RecordParticipants("resolved", res.Resolved)
	metrics.RecordParticipants("skipped", res.Skipped)
	metrics.RecordParticipants("failed", len(res.Failures))
	metrics.RecordPatchesApplied(applied)
	if res.SheetsApplied {
		metrics.UpdateSheetsLatched(true)
	}
	s.logger.Debug(ctx, "pass finished",
		logger.String("pass", id),
		logger.String("reason", t.Reason),
		logger.String("outcome", outcome),
		logger.Int("patches", applied),
		logger.Duration("took", elapsed),
	)

	if res.Err != nil {
		return fmt.Errorf("pass %s: %w", id, res.Err)
	}
	return nil
}

// apply writes every patch into the live roster. Participants removed since
// the snapshot are ignored.
func (s *Service) apply(res resolve.Result) int {
	if len(res.Sides) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sideKey, patches := range res.Sides {
		for key, patch := range patches {
			p, err := s.participantLocked(sideKey, key)
			if err != nil {
				continue
			}
			patch.Apply(p)
			n++
		}
	}
	return n
}

// Import caches records, adds them to the corpus and triggers a pass.
func (s *Service) Import(ctx context.Context, records []build.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	if s.store != nil {
		if err := s.store.Put(ctx, records, time.Now()); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	s.corpus.Add(records...)
	s.Trigger(ctx, "import")
	return nil
}

// LoadCorpus loads one generation from the store, or marks it loaded with
// what is already in memory when there is no store. A pass deferred for a
// missing corpus is triggered again.
func (s *Service) LoadCorpus(ctx context.Context, gen int) (int, error) {
	var (
		n   int
		err error
	)
	if s.store != nil {
		n, err = s.corpus.LoadFrom(ctx, s.store, gen)
		if err != nil {
			metrics.RecordErrorByComponent("service", "corpus_load")
			return 0, err
		}
	} else {
		recs, _ := s.corpus.Records(ctx, gen, "")
		s.corpus.Load(gen, recs)
		n = len(recs)
	}
	metrics.UpdateCorpusRecords(n)

	s.mu.Lock()
	s.rescanPending = false
	lg := s.logger
	s.mu.Unlock()
	if lg != nil {
		lg.Info(ctx, "corpus loaded", logger.Int("gen", gen), logger.Int("records", n))
	}
	s.Trigger(ctx, "corpus")
	return n, nil
}

// Parse reads set text into records for format.
func (s *Service) Parse(_ context.Context, text, format string) []build.Record {
	p := setparse.New(s.dex, setparse.WithFormat(format))
	recs := p.ParseAll(text)
	result := "ok"
	if len(recs) == 0 {
		result = "empty"
	}
	metrics.RecordParse("text", result, len(recs))
	return recs
}

// Unpack decodes packed team lines. Teams that fail to decode are dropped
// and reported in the error.
func (s *Service) Unpack(_ context.Context, text string) ([]build.Record, error) {
	recs, err := packed.New(s.dex).UnpackAll(text)
	result := "ok"
	switch {
	case err != nil && len(recs) == 0:
		result = "malformed"
	case err != nil:
		result = "partial"
	case len(recs) == 0:
		result = "empty"
	}
	metrics.RecordParse("packed", result, len(recs))
	return recs, err
}

// Export renders records as set text.
func (s *Service) Export(_ context.Context, records []build.Record) string {
	return setparse.ExportAll(records)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"format":        s.format,
		"participants":  s.participantsLocked(),
		"sheetsLatched": s.sheetsLatched,
		"rescanPending": s.rescanPending,
		"corpusRecords": s.corpus.Size(),
		"lastPass":      s.last,
	}
	if s.started {
		stats["state"] = s.engine.State().String()
		stats["queueLength"] = s.queue.Len(ctx)
	}
	if s.store != nil {
		stats["cachedRecords"] = s.store.Count(ctx)
	}
	return stats
}

func (s *Service) sideLocked(key string) int {
	for i := range s.sides {
		if s.sides[i].Key == key {
			return i
		}
	}
	return -1
}

func (s *Service) participantLocked(side, key string) (*preset.Participant, error) {
	idx := s.sideLocked(side)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSide, side)
	}
	for _, p := range s.sides[idx].Participants {
		if p.Key == key {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on side %q", ErrUnknownParticipant, key, side)
}

func (s *Service) participantsLocked() int {
	n := 0
	for _, side := range s.sides {
		n += len(side.Participants)
	}
	return n
}

func cloneSides(sides []resolve.Side) []resolve.Side {
	out := make([]resolve.Side, len(sides))
	for i, side := range sides {
		out[i].Key = side.Key
		out[i].Participants = make([]*preset.Participant, 0, len(side.Participants))
		for _, p := range side.Participants {
			if p != nil {
				out[i].Participants = append(out[i].Participants, p.Clone())
			}
		}
	}
	return out
}
