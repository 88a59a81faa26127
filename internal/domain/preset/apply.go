package preset

import (
	"sort"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/matching"
)

// Spread totals below which a build is treated as incomplete.
const (
	fullEVSlack = 2
	emptyIVs    = 0
)

// Input is everything the applier looks at.
type Input struct {
	Participant *Participant
	Record      build.Record
	// Usage is the aligned usage record, nil when none aligned.
	Usage *build.Record
	Gen   int
}

// Apply computes the patch that installs in.Record on the participant. It is
// a pure function: only fields whose value would change are set, so applying
// the result and calling Apply again yields an empty patch. A record without
// identity or a participant without forme yields an empty patch.
func Apply(in Input) Patch {
	p, rec := in.Participant, in.Record
	if p == nil || p.Species == "" || rec.ID == "" {
		return Patch{}
	}
	gen := in.Gen
	if gen == 0 {
		gen = rec.Gen
	}
	if gen == 0 {
		gen = dex.DefaultGen
	}

	want := desired(p, rec, in.Usage, gen)
	return diff(p, want)
}

// Clear computes the patch that uninstalls a build whose forme no longer
// matches the participant. The preset is pinned to the current forme and
// only observed moves remain in the selection.
func Clear(p *Participant) Patch {
	if p == nil || p.PresetID == "" {
		return Patch{}
	}
	t := target{
		skipAbility:   p.Ability == "",
		skipItem:      p.Item == "",
		ivs:           p.IVs,
		evs:           p.EVs,
		moves:         mergeRevealed(nil, p.Revealed.Moves),
		presetSpecies: p.Species,
	}
	return diff(p, t)
}

type target struct {
	ability, item, nature, tera string
	skipAbility, skipItem       bool
	ivs, evs                    build.Stats
	moves                       []string
	altAbilities, altItems      []build.Alt[string]
	altMoves, altTera           []build.Alt[string]
	showGenetics                bool
	presetID                    string
	presetSource                build.Source
	presetSpecies               string
}

func desired(p *Participant, rec build.Record, usage *build.Record, gen int) target {
	// Reset alternative pools and fill spread gaps with generation defaults.
	t := target{
		ability:       rec.Ability,
		item:          rec.Item,
		nature:        rec.Nature,
		tera:          rec.TeraType,
		ivs:           rec.IVs.Fill(dex.MaxIV(gen)),
		evs:           rec.EVs.Fill(dex.DefaultEV(gen)),
		moves:         append([]string(nil), rec.Moves...),
		altAbilities:  rec.AltAbilities,
		altItems:      rec.AltItems,
		altMoves:      rec.AltMoves,
		altTera:       rec.AltTeraTypes,
		presetID:      rec.ID,
		presetSource:  rec.Source,
		presetSpecies: p.Species,
	}
	if !dex.HasAbilities(gen) {
		t.ability, t.altAbilities = "", nil
	}
	if !dex.HasItems(gen) {
		t.item, t.altItems = "", nil
	}
	if !dex.HasNatures(gen) {
		t.nature = ""
	}

	// Revealed facts outrank any guess.
	t.skipAbility = p.Revealed.Ability != ""
	t.skipItem = p.Revealed.Item != ""
	if p.Revealed.TeraType != "" {
		t.tera = ""
	}

	// Usage-ranked alternatives replace the record's own only when the pools
	// describe the same candidate.
	if usage != nil {
		if !t.skipAbility && dex.HasAbilities(gen) {
			t.ability, t.altAbilities = aligned(t.ability, t.altAbilities, usage.AltAbilities)
		}
		if !t.skipItem && dex.HasItems(gen) {
			t.item, t.altItems = aligned(t.item, t.altItems, usage.AltItems)
		}
		if n := len(usage.AltMoves); n > 1 && n == len(rec.AltMoves) {
			t.altMoves = matching.SortUsageAlts(usage.AltMoves)
			t.moves = t.moves[:0]
			for _, a := range t.altMoves {
				if len(t.moves) == build.MaxMoves {
					break
				}
				if !build.ContainsID(t.moves, a.Value()) {
					t.moves = append(t.moves, a.Value())
				}
			}
		}
	}

	t.moves = mergeRevealed(t.moves, p.Revealed.Moves)

	// Transformation keeps the original HP genetics and the held item.
	if p.TransformedSpecies != "" && p.Nature != "" {
		t.ivs[build.HP] = p.IVs[build.HP]
		t.evs[build.HP] = p.EVs[build.HP]
		if p.EffectiveItem() != "" {
			t.skipItem = true
		}
	}

	// No opinion in the record means no override.
	if t.ability == "" {
		t.skipAbility = true
	}
	if t.item == "" {
		t.skipItem = true
	}

	incompleteEVs := gen >= 3 && t.evs.Total() < dex.MaxEVTotal(gen)-fullEVSlack
	t.showGenetics = incompleteEVs || t.ivs.Total() == emptyIVs
	return t
}

// aligned swaps in the usage-sorted pool when it has more than one entry and
// the same size as the record's pool.
func aligned(cur string, pool, usage []build.Alt[string]) (string, []build.Alt[string]) {
	if len(usage) <= 1 || len(usage) != len(pool) {
		return cur, pool
	}
	sorted := matching.SortUsageAlts(usage)
	return sorted[0].Value(), sorted
}

// mergeRevealed makes sure every observed move is in the selection. Missing
// ones fill free slots first, then replace unobserved moves from the back.
func mergeRevealed(moves, revealed []string) []string {
	for _, m := range revealed {
		if build.ContainsID(moves, m) {
			continue
		}
		if len(moves) < build.MaxMoves {
			moves = append(moves, m)
			continue
		}
		for i := len(moves) - 1; i >= 0; i-- {
			if !build.ContainsID(revealed, moves[i]) {
				moves[i] = m
				break
			}
		}
	}
	return moves
}

func diff(p *Participant, t target) Patch {
	var out Patch
	if t.presetID != p.PresetID {
		out.PresetID = &t.presetID
	}
	if t.presetSource != p.PresetSource {
		out.PresetSource = &t.presetSource
	}
	if t.presetSpecies != p.PresetSpecies {
		out.PresetSpecies = &t.presetSpecies
	}
	if !t.skipAbility && t.ability != p.Ability {
		out.Ability = &t.ability
	}
	if !t.skipItem && t.item != p.Item {
		out.Item = &t.item
	}
	if t.nature != "" && t.nature != p.Nature {
		out.Nature = &t.nature
	}
	if t.tera != "" && t.tera != p.TeraType {
		out.TeraType = &t.tera
	}
	if t.ivs != p.IVs {
		out.IVs = &t.ivs
	}
	if t.evs != p.EVs {
		out.EVs = &t.evs
	}
	if !equalStrings(t.moves, p.Moves) {
		out.Moves = &t.moves
	}
	if !equalAlts(t.altAbilities, p.AltAbilities) {
		out.AltAbilities = &t.altAbilities
	}
	if !equalAlts(t.altItems, p.AltItems) {
		out.AltItems = &t.altItems
	}
	if !equalAlts(t.altMoves, p.AltMoves) {
		out.AltMoves = &t.altMoves
	}
	if !equalAlts(t.altTera, p.AltTeraTypes) {
		out.AltTeraTypes = &t.altTera
	}
	if t.showGenetics && !p.ShowGenetics {
		out.ShowGenetics = &t.showGenetics
	}

	out.ClearDirtyAbility = redundant(p.Dirty.Ability, p.Revealed.Ability)
	out.ClearDirtyItem = redundant(p.Dirty.Item, p.Revealed.Item)
	out.ClearDirtyTeraType = redundant(p.Dirty.TeraType, p.Revealed.TeraType)

	for m := range p.MoveOverrides {
		if !build.ContainsID(t.moves, m) {
			out.DropMoveOverrides = append(out.DropMoveOverrides, m)
		}
	}
	sort.Strings(out.DropMoveOverrides)
	return out
}

func redundant(dirty, revealed string) bool {
	return dirty != "" && revealed != "" && dex.ToID(dirty) == dex.ToID(revealed)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalAlts(a, b []build.Alt[string]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
