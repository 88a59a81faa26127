// Package matching picks the record that agrees with what a participant has
// already revealed, and aligns usage statistics with an applied selection.
package matching

import (
	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// Facts are the authoritative reveals of one participant. User overrides never
// belong here.
type Facts struct {
	Ability string
	Item    string
	Moves   []string
}

// Empty reports whether nothing has been revealed yet.
func (f Facts) Empty() bool {
	return f.Ability == "" && f.Item == "" && len(f.Moves) == 0
}

// Eligible reports whether a record may take part in fact matching. Only
// curated corpus records qualify.
func Eligible(r *build.Record) bool {
	return r.Source == build.SourceCorpus || r.Source == build.SourceBundled
}

// Matches reports whether r is consistent with every revealed fact under the
// mechanics of gen.
func Matches(r *build.Record, f Facts, gen int) bool {
	if dex.HasItems(gen) && f.Item != "" && !r.HasItem(f.Item) {
		return false
	}
	if dex.HasAbilities(gen) && f.Ability != "" && !r.HasAbility(f.Ability) {
		return false
	}
	for _, m := range f.Moves {
		if !r.HasMove(m) {
			return false
		}
	}
	return true
}

// MatchFirst returns the best-ranked eligible record consistent with f. With
// no match it falls back to the first eligible record, then to the first
// record overall; it reports false only for an empty candidate list.
func MatchFirst(candidates []build.Record, f Facts, gen int) (build.Record, bool) {
	if len(candidates) == 0 {
		return build.Record{}, false
	}
	fallback := -1
	for i := range candidates {
		r := &candidates[i]
		if !Eligible(r) {
			continue
		}
		if Matches(r, f, gen) {
			return *r, true
		}
		if fallback < 0 {
			fallback = i
		}
	}
	if fallback >= 0 {
		return candidates[fallback], true
	}
	return candidates[0], true
}

// MatchAll returns every eligible record consistent with f, in rank order. An
// empty result leaves the fallback decision to the caller.
func MatchAll(candidates []build.Record, f Facts, gen int) []build.Record {
	var out []build.Record
	for i := range candidates {
		r := &candidates[i]
		if Eligible(r) && Matches(r, f, gen) {
			out = append(out, *r)
		}
	}
	return out
}
