// Package resolve runs one roster-wide resolution pass: select candidates,
// match revealed facts, align usage and compute per-side patches.
package resolve

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dedupe"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/matching"
	"github.com/okian/setres/internal/domain/pool"
	"github.com/okian/setres/internal/domain/preset"
)

// Side is one half of the roster.
type Side struct {
	Key          string
	Participants []*preset.Participant
}

// Context is the roster a pass resolves.
type Context struct {
	Gen    int
	Format string
	Sides  []Side
}

// Snapshot is the read-only record data a pass works from. It is taken once
// before the pass starts.
type Snapshot struct {
	Corpus  CorpusState
	Records []build.Record
	Usage   []build.Record
	Sheets  []build.Record
}

// SidePatch batches every patch of one side, keyed by participant.
type SidePatch map[string]preset.Patch

// Failure describes one participant that could not be resolved.
type Failure struct {
	Side string
	Key  string
	Err  error
}

// Result is the outcome of a pass. Nothing is written until the caller
// applies Sides.
type Result struct {
	Sides         map[string]SidePatch
	Rescan        bool
	SheetsApplied bool
	Resolved      int
	Skipped       int
	Failures      []Failure
	Err           error
}

// Patches counts the non-empty patches across sides.
func (r Result) Patches() int {
	n := 0
	for _, sp := range r.Sides {
		n += len(sp)
	}
	return n
}

func (r *Result) add(side, key string, p preset.Patch) {
	if p.Empty() {
		return
	}
	if r.Sides == nil {
		r.Sides = make(map[string]SidePatch)
	}
	sp := r.Sides[side]
	if sp == nil {
		sp = make(SidePatch)
		r.Sides[side] = sp
	}
	if prev, ok := sp[key]; ok {
		p = prev.Merge(p)
	}
	sp[key] = p
}

// Engine runs passes. A single engine must not run two passes at once; the
// service owning it serialises them.
type Engine struct {
	selector *pool.Selector
	aligner  matching.Aligner
	seen     dedupe.Deduper
	state    atomic.Int32
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithAligner replaces the usage aligner.
func WithAligner(a matching.Aligner) Option {
	return func(e *Engine) {
		if a != nil {
			e.aligner = a
		}
	}
}

// WithDeduper replaces the fingerprint tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(e *Engine) {
		if d != nil {
			e.seen = d
		}
	}
}

// NewEngine creates an engine selecting candidates with sel.
func NewEngine(sel *pool.Selector, opts ...Option) *Engine {
	e := &Engine{
		selector: sel,
		aligner:  matching.MovePoolAligner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seen == nil {
		e.seen = dedupe.NewInMemoryDeduper()
	}
	return e
}

// State returns the current phase.
func (e *Engine) State() State { return State(e.state.Load()) }

// Forget drops every remembered fingerprint so the next pass reconsiders all
// unresolved participants.
func (e *Engine) Forget(ctx context.Context) { e.seen.Reset(ctx) }

// Pass resolves every participant that needs it and, unless sheetsLatched,
// applies sheet records. It never mutates the participants it is given.
func (e *Engine) Pass(ctx context.Context, rc Context, snap Snapshot, sheetsLatched bool) Result {
	defer e.state.Store(int32(StateIdle))

	var res Result
	if rc.Format == "" || len(rc.Sides) == 0 {
		return res
	}
	gen := rc.Gen
	if gen == 0 {
		gen = dex.GenFromFormat(rc.Format)
	}
	if gen == 0 {
		gen = dex.DefaultGen
	}

	e.state.Store(int32(StateScanning))
	type job struct {
		side string
		p    *preset.Participant
	}
	var jobs []job
	for _, side := range rc.Sides {
		for _, p := range side.Participants {
			if e.needsResolution(ctx, p) {
				jobs = append(jobs, job{side: side.Key, p: p})
			} else {
				res.Skipped++
			}
		}
	}

	if snap.Corpus == CorpusNotLoaded {
		for _, j := range jobs {
			e.seen.Unrecord(ctx, j.p.Fingerprint())
		}
		res.Rescan = len(jobs) > 0
		jobs = nil
	}

	e.state.Store(int32(StateResolving))
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		patch, err := e.resolveOne(rc, gen, j.p, snap)
		if err != nil {
			e.seen.Unrecord(ctx, j.p.Fingerprint())
			res.Failures = append(res.Failures, Failure{Side: j.side, Key: j.p.Key, Err: err})
			continue
		}
		if patch.PresetID != nil && *patch.PresetID != "" {
			res.Resolved++
		}
		res.add(j.side, j.p.Key, patch)
	}

	if !sheetsLatched && len(snap.Sheets) > 0 && res.Err == nil {
		res.SheetsApplied = e.applySheets(rc, gen, snap.Sheets, &res)
	}
	return res
}

// needsResolution decides whether p takes part in this pass. Unresolved
// participants and automatically resolved ones with new facts are resolved
// once per fingerprint; a forme change always re-resolves a
// non-authoritative build.
func (e *Engine) needsResolution(ctx context.Context, p *preset.Participant) bool {
	if p == nil || p.Species == "" || p.PresetSource.Authoritative() {
		return false
	}
	fp := p.Fingerprint()
	if p.FormeChanged() {
		e.seen.SeenAndRecord(ctx, fp)
		return true
	}
	if p.Resolved() && !automatic(p.PresetSource) {
		return false
	}
	return !e.seen.SeenAndRecord(ctx, fp)
}

// automatic reports whether a build source was picked by resolution rather
// than supplied by the user or the server.
func automatic(s build.Source) bool {
	switch s {
	case build.SourceCorpus, build.SourceBundled, build.SourceUsage:
		return true
	default:
		return false
	}
}

func (e *Engine) resolveOne(rc Context, gen int, p *preset.Participant, snap Snapshot) (patch preset.Patch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrParticipantPanic, p.Key, r)
		}
	}()

	q := pool.Query{
		Species:            p.Species,
		TransformedSpecies: p.TransformedSpecies,
		Format:             rc.Format,
		Gen:                gen,
	}
	candidates := e.selector.Select(snap.Records, q)
	rec, ok := matching.MatchFirst(candidates, p.Revealed.Facts(), gen)
	if !ok {
		if p.FormeChanged() {
			return preset.Clear(p), nil
		}
		return preset.Patch{}, nil
	}

	in := preset.Input{Participant: p, Record: rec, Gen: gen}
	if usages := e.selector.Select(snap.Usage, q); len(usages) > 0 {
		if u, ok := e.aligner.FindMatchingUsage(usages, rec.Moves, rc.Format); ok {
			in.Usage = &u
		}
	}
	return preset.Apply(in), nil
}

// applySheets installs sheet records on every participant not carrying a
// server build. Patches computed earlier in the pass are taken into account
// so the sheet build wins.
func (e *Engine) applySheets(rc Context, gen int, sheets []build.Record, res *Result) bool {
	applied := false
	for _, side := range rc.Sides {
		for _, p := range side.Participants {
			if p == nil || p.Species == "" || p.PresetSource.Authoritative() {
				continue
			}
			candidates := e.selector.Select(sheets, pool.Query{
				Species:            p.Species,
				TransformedSpecies: p.TransformedSpecies,
				Format:             rc.Format,
				Gen:                gen,
			})
			if len(candidates) == 0 {
				continue
			}
			view := p
			if prev, ok := res.Sides[side.Key][p.Key]; ok {
				view = p.Clone()
				prev.Apply(view)
			}
			res.add(side.Key, p.Key, preset.Apply(preset.Input{Participant: view, Record: candidates[0], Gen: gen}))
			applied = true
		}
	}
	return applied
}
