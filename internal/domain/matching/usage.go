package matching

import (
	"sort"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// Aligner picks the usage record describing the same role as an applied move
// selection.
type Aligner interface {
	FindMatchingUsage(usages []build.Record, known []string, format string) (build.Record, bool)
}

// MovePoolAligner aligns by move pool containment.
type MovePoolAligner struct{}

var _ Aligner = MovePoolAligner{}

// FindMatchingUsage returns the usage record whose move pool contains every
// known move. With no known moves, or a single candidate, the first candidate
// is returned as is. Several qualifying records in a randomized format are
// disambiguated by pool size: a pool exactly as large as the known selection
// wins, otherwise the tightest pool does. Other formats keep rank order.
func (MovePoolAligner) FindMatchingUsage(usages []build.Record, known []string, format string) (build.Record, bool) {
	if len(usages) == 0 {
		return build.Record{}, false
	}
	if len(known) == 0 || len(usages) == 1 {
		return usages[0], true
	}

	var qualifying []int
	for i := range usages {
		if containsAll(&usages[i], known) {
			qualifying = append(qualifying, i)
		}
	}
	switch {
	case len(qualifying) == 0:
		return build.Record{}, false
	case len(qualifying) == 1 || !dex.IsRandomFormat(format):
		return usages[qualifying[0]], true
	}

	best := qualifying[0]
	for _, i := range qualifying {
		if len(usages[i].AltMoves) == len(known) {
			return usages[i], true
		}
		if len(usages[i].AltMoves) < len(usages[best].AltMoves) {
			best = i
		}
	}
	return usages[best], true
}

func containsAll(r *build.Record, moves []string) bool {
	for _, m := range moves {
		if !r.HasMove(m) {
			return false
		}
	}
	return true
}

// SortUsageAlts orders alternatives by descending usage fraction. Bare values
// count as zero and ties keep input order. The input is left untouched.
func SortUsageAlts[T any](alts []build.Alt[T]) []build.Alt[T] {
	out := make([]build.Alt[T], len(alts))
	copy(out, alts)
	sort.SliceStable(out, func(i, j int) bool {
		return fractionOf(out[i]) > fractionOf(out[j])
	})
	return out
}

func fractionOf[T any](a build.Alt[T]) float64 {
	f, ok := a.Fraction()
	if !ok {
		return 0
	}
	return f
}

// UsageFraction returns the usage fraction recorded for value, zero when the
// value is absent or bare.
func UsageFraction(alts []build.Alt[string], value string) float64 {
	id := dex.ToID(value)
	for _, a := range alts {
		if dex.ToID(a.Value()) == id {
			return fractionOf(a)
		}
	}
	return 0
}
