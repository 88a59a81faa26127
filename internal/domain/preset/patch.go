package preset

import "github.com/okian/setres/internal/domain/build"

// Patch is a partial participant mutation. A nil field is left untouched.
type Patch struct {
	PresetID      *string
	PresetSource  *build.Source
	PresetSpecies *string

	Ability  *string
	Item     *string
	Nature   *string
	TeraType *string
	IVs      *build.Stats
	EVs      *build.Stats
	Moves    *[]string

	AltAbilities *[]build.Alt[string]
	AltItems     *[]build.Alt[string]
	AltMoves     *[]build.Alt[string]
	AltTeraTypes *[]build.Alt[string]

	ShowGenetics *bool

	ClearDirtyAbility  bool
	ClearDirtyItem     bool
	ClearDirtyTeraType bool

	DropMoveOverrides []string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields names every field the patch touches, in a fixed order.
func (p Patch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.PresetID != nil, "presetId")
	add(p.PresetSource != nil, "presetSource")
	add(p.PresetSpecies != nil, "presetSpecies")
	add(p.Ability != nil, "ability")
	add(p.Item != nil, "item")
	add(p.Nature != nil, "nature")
	add(p.TeraType != nil, "teraType")
	add(p.IVs != nil, "ivs")
	add(p.EVs != nil, "evs")
	add(p.Moves != nil, "moves")
	add(p.AltAbilities != nil, "altAbilities")
	add(p.AltItems != nil, "altItems")
	add(p.AltMoves != nil, "altMoves")
	add(p.AltTeraTypes != nil, "altTeraTypes")
	add(p.ShowGenetics != nil, "showGenetics")
	add(p.ClearDirtyAbility, "dirty.ability")
	add(p.ClearDirtyItem, "dirty.item")
	add(p.ClearDirtyTeraType, "dirty.teraType")
	add(len(p.DropMoveOverrides) > 0, "moveOverrides")
	return out
}

// Merge overlays o on p; fields set in o win.
func (p Patch) Merge(o Patch) Patch {
	out := p
	pick(&out.PresetID, o.PresetID)
	pick(&out.PresetSource, o.PresetSource)
	pick(&out.PresetSpecies, o.PresetSpecies)
	pick(&out.Ability, o.Ability)
	pick(&out.Item, o.Item)
	pick(&out.Nature, o.Nature)
	pick(&out.TeraType, o.TeraType)
	pick(&out.IVs, o.IVs)
	pick(&out.EVs, o.EVs)
	pick(&out.Moves, o.Moves)
	pick(&out.AltAbilities, o.AltAbilities)
	pick(&out.AltItems, o.AltItems)
	pick(&out.AltMoves, o.AltMoves)
	pick(&out.AltTeraTypes, o.AltTeraTypes)
	pick(&out.ShowGenetics, o.ShowGenetics)
	out.ClearDirtyAbility = p.ClearDirtyAbility || o.ClearDirtyAbility
	out.ClearDirtyItem = p.ClearDirtyItem || o.ClearDirtyItem
	out.ClearDirtyTeraType = p.ClearDirtyTeraType || o.ClearDirtyTeraType
	if len(o.DropMoveOverrides) > 0 {
		out.DropMoveOverrides = append(append([]string(nil), p.DropMoveOverrides...), o.DropMoveOverrides...)
	}
	return out
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Apply writes the patch into q. It is the only code path that mutates a
// participant during resolution.
func (p Patch) Apply(q *Participant) {
	if p.PresetID != nil {
		q.PresetID = *p.PresetID
	}
	if p.PresetSource != nil {
		q.PresetSource = *p.PresetSource
	}
	if p.PresetSpecies != nil {
		q.PresetSpecies = *p.PresetSpecies
	}
	if p.Ability != nil {
		q.Ability = *p.Ability
	}
	if p.Item != nil {
		q.Item = *p.Item
	}
	if p.Nature != nil {
		q.Nature = *p.Nature
	}
	if p.TeraType != nil {
		q.TeraType = *p.TeraType
	}
	if p.IVs != nil {
		q.IVs = *p.IVs
	}
	if p.EVs != nil {
		q.EVs = *p.EVs
	}
	if p.Moves != nil {
		q.Moves = append([]string(nil), (*p.Moves)...)
	}
	if p.AltAbilities != nil {
		q.AltAbilities = cloneAlts(*p.AltAbilities)
	}
	if p.AltItems != nil {
		q.AltItems = cloneAlts(*p.AltItems)
	}
	if p.AltMoves != nil {
		q.AltMoves = cloneAlts(*p.AltMoves)
	}
	if p.AltTeraTypes != nil {
		q.AltTeraTypes = cloneAlts(*p.AltTeraTypes)
	}
	if p.ShowGenetics != nil {
		q.ShowGenetics = *p.ShowGenetics
	}
	if p.ClearDirtyAbility {
		q.Dirty.Ability = ""
	}
	if p.ClearDirtyItem {
		q.Dirty.Item = ""
	}
	if p.ClearDirtyTeraType {
		q.Dirty.TeraType = ""
	}
	for _, m := range p.DropMoveOverrides {
		delete(q.MoveOverrides, m)
	}
}
