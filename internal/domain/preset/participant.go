// Package preset applies a winning build record to a live participant as a
// minimal patch.
package preset

import (
	"sort"
	"strings"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/matching"
)

// Reveals are facts the battle engine asserted. They only ever grow.
type Reveals struct {
	Ability  string   `json:"ability,omitempty"`
	Item     string   `json:"item,omitempty"`
	TeraType string   `json:"teraType,omitempty"`
	Moves    []string `json:"moves,omitempty"`
}

// Merge folds o into r without ever dropping a known fact and reports whether
// anything new arrived.
func (r *Reveals) Merge(o Reveals) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst == "" {
			*dst = v
			changed = true
		}
	}
	set(&r.Ability, o.Ability)
	set(&r.Item, o.Item)
	set(&r.TeraType, o.TeraType)
	for _, m := range o.Moves {
		if m != "" && !build.ContainsID(r.Moves, m) {
			r.Moves = append(r.Moves, m)
			changed = true
		}
	}
	return changed
}

// Facts converts the reveals to matcher input.
func (r Reveals) Facts() matching.Facts {
	return matching.Facts{Ability: r.Ability, Item: r.Item, Moves: r.Moves}
}

// Dirty holds values the user typed in. Automatic resolution never replaces them.
type Dirty struct {
	Ability  string `json:"ability,omitempty"`
	Item     string `json:"item,omitempty"`
	Nature   string `json:"nature,omitempty"`
	TeraType string `json:"teraType,omitempty"`
}

// Participant is one live battle entity whose build is being resolved.
type Participant struct {
	Key                string `json:"key"`
	Species            string `json:"species"`
	TransformedSpecies string `json:"transformedSpecies,omitempty"`
	Level              int    `json:"level,omitempty"`

	PresetID      string       `json:"presetId,omitempty"`
	PresetSource  build.Source `json:"presetSource,omitempty"`
	PresetSpecies string       `json:"presetSpecies,omitempty"`

	Revealed Reveals `json:"revealed"`
	Dirty    Dirty   `json:"dirty"`

	Ability       string             `json:"ability,omitempty"`
	Item          string             `json:"item,omitempty"`
	Nature        string             `json:"nature,omitempty"`
	IVs           build.Stats        `json:"ivs"`
	EVs           build.Stats        `json:"evs"`
	Moves         []string           `json:"moves,omitempty"`
	MoveOverrides map[string]float64 `json:"moveOverrides,omitempty"`
	TeraType      string             `json:"teraType,omitempty"`

	AltAbilities []build.Alt[string] `json:"altAbilities,omitempty"`
	AltItems     []build.Alt[string] `json:"altItems,omitempty"`
	AltMoves     []build.Alt[string] `json:"altMoves,omitempty"`
	AltTeraTypes []build.Alt[string] `json:"altTeraTypes,omitempty"`

	ShowGenetics bool `json:"showGenetics,omitempty"`
}

// Resolved reports whether a build identity has been applied.
func (p *Participant) Resolved() bool { return p.PresetID != "" }

// FormeChanged reports whether the forme moved on since the preset was applied.
func (p *Participant) FormeChanged() bool {
	return p.PresetID != "" && dex.ToID(p.PresetSpecies) != dex.ToID(p.Species)
}

// EffectiveAbility returns the ability shown downstream: a user edit, then the
// revealed ability, then the installed guess.
func (p *Participant) EffectiveAbility() string {
	return firstNonEmpty(p.Dirty.Ability, p.Revealed.Ability, p.Ability)
}

// EffectiveItem mirrors EffectiveAbility for the held item.
func (p *Participant) EffectiveItem() string {
	return firstNonEmpty(p.Dirty.Item, p.Revealed.Item, p.Item)
}

// Fingerprint identifies the participant together with everything revealed
// about it. A new reveal or a forme change yields a new fingerprint.
func (p *Participant) Fingerprint() string {
	moves := make([]string, 0, len(p.Revealed.Moves))
	for _, m := range p.Revealed.Moves {
		moves = append(moves, dex.ToID(m))
	}
	sort.Strings(moves)
	return strings.Join([]string{
		p.Key,
		dex.ToID(p.Species),
		dex.ToID(p.TransformedSpecies),
		dex.ToID(p.Revealed.Ability),
		dex.ToID(p.Revealed.Item),
		dex.ToID(p.Revealed.TeraType),
		strings.Join(moves, ","),
	}, "|")
}

// Clone returns a deep copy, used to snapshot a roster for a pass.
func (p *Participant) Clone() *Participant {
	c := *p
	c.Revealed.Moves = cloneStrings(p.Revealed.Moves)
	c.Moves = cloneStrings(p.Moves)
	c.AltAbilities = cloneAlts(p.AltAbilities)
	c.AltItems = cloneAlts(p.AltItems)
	c.AltMoves = cloneAlts(p.AltMoves)
	c.AltTeraTypes = cloneAlts(p.AltTeraTypes)
	if p.MoveOverrides != nil {
		c.MoveOverrides = make(map[string]float64, len(p.MoveOverrides))
		for k, v := range p.MoveOverrides {
			c.MoveOverrides[k] = v
		}
	}
	return &c
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneAlts(s []build.Alt[string]) []build.Alt[string] {
	if s == nil {
		return nil
	}
	return append([]build.Alt[string](nil), s...)
}
