// Package pool narrows the full record superset down to the ranked candidates
// relevant to one participant.
package pool

import (
	"sort"
	"strings"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// builtinFamilies maps format ids that play identically to one canonical id.
var builtinFamilies = map[string]string{ //nolint:gochecknoglobals // fixed table
	"gen9battlestadiumsinglesregg": "gen9bssregg",
	"gen9battlestadiumsinglesregh": "gen9bssregh",
	"gen8battlestadiumsingles":     "gen8bss",
	"gen9nationaldexou":            "gen9nationaldex",
	"gen8nationaldexou":            "gen8nationaldex",
}

// familySuffixes are stripped before the table lookup; best-of-three ladders
// share the pool of their single-game counterpart.
var familySuffixes = []string{"bo3"} //nolint:gochecknoglobals // fixed table

// Query identifies the participant a pool is selected for.
type Query struct {
	Species            string
	TransformedSpecies string
	Format             string
	Gen                int
}

// Selector filters and ranks records. It is safe for concurrent use once built.
type Selector struct {
	dex      *dex.Dex
	families map[string]string
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithFamilies adds format family entries (format id -> canonical id) on top
// of the built-in table.
func WithFamilies(families map[string]string) Option {
	return func(s *Selector) {
		for k, v := range families {
			if k = dex.ToID(k); k != "" {
				s.families[k] = dex.ToID(v)
			}
		}
	}
}

// New creates a selector using d for forme aliases.
func New(d *dex.Dex, opts ...Option) *Selector {
	s := &Selector{dex: d, families: make(map[string]string, len(builtinFamilies))}
	for k, v := range builtinFamilies {
		s.families[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize maps a format to its family id.
func (s *Selector) Normalize(format string) string {
	id := dex.ToID(format)
	for _, suffix := range familySuffixes {
		id = strings.TrimSuffix(id, suffix)
	}
	if canon, ok := s.families[id]; ok {
		return canon
	}
	return id
}

// Select returns the records whose forme is an alias of the participant's
// forme (or transformed forme), restricted to the first non-empty format tier:
// same format family, then same generation non-randomized, then same
// generation. Exact forme matches rank ahead of aliases; input order breaks ties.
func (s *Selector) Select(records []build.Record, q Query) []build.Record {
	if q.Species == "" || len(records) == 0 {
		return nil
	}

	rank := s.formeRanks(q)
	var matched []build.Record
	for _, r := range records {
		if _, ok := rank[dex.ToID(r.Species)]; ok {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	gen := q.Gen
	if gen == 0 {
		gen = dex.GenFromFormat(q.Format)
	}
	format := s.Normalize(q.Format)
	tiers := []func(build.Record) bool{
		func(r build.Record) bool { return format != "" && s.Normalize(r.Format) == format },
		func(r build.Record) bool { return recordGen(r) == gen && !dex.IsRandomFormat(r.Format) },
		func(r build.Record) bool { return recordGen(r) == gen },
	}

	var out []build.Record
	for _, keep := range tiers {
		for _, r := range matched {
			if keep(r) {
				out = append(out, r)
			}
		}
		if len(out) > 0 {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank[dex.ToID(out[i].Species)] < rank[dex.ToID(out[j].Species)]
	})
	return out
}

// formeRanks maps every accepted forme id to its rank: the participant's own
// forme first, then the transformed forme, then aliases of either.
func (s *Selector) formeRanks(q Query) map[string]int {
	const (
		rankOwn = iota
		rankTransformed
		rankAlias
	)
	ranks := make(map[string]int)
	add := func(name string, r int) {
		id := dex.ToID(name)
		if cur, ok := ranks[id]; !ok || r < cur {
			ranks[id] = r
		}
	}
	add(q.Species, rankOwn)
	if q.TransformedSpecies != "" {
		add(q.TransformedSpecies, rankTransformed)
	}
	for _, name := range []string{q.Species, q.TransformedSpecies} {
		if name == "" {
			continue
		}
		for _, alias := range s.dex.Aliases(name) {
			add(alias, rankAlias)
		}
	}
	return ranks
}

func recordGen(r build.Record) int {
	if r.Gen != 0 {
		return r.Gen
	}
	return dex.GenFromFormat(r.Format)
}
