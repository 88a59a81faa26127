// Package packed unpacks the dense positional team encoding used by team
// storage: `<format>[-box]]<team name>|<mon>]<mon>...`.
package packed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// Positional layout of one packed mon.
const (
	fieldNickname = iota
	fieldSpecies
	fieldItem
	fieldAbility
	fieldMoves
	fieldNature
	fieldEVs
	fieldGender
	fieldIVs
	fieldShiny
	fieldLevel
	fieldTrailing

	minFields = fieldLevel + 1
)

// Positional layout of the comma-joined trailing field.
const (
	trailHappiness = iota
	trailHiddenPower
	trailPokeball
	trailGigantamax
	trailDynamaxLevel
	trailTeraType
)

const (
	boxSuffix   = "-box"
	maxEV       = 255
	maxIV       = 31
	maxLevel    = 100
	maxHappy    = 255
	maxDynamax  = 10
	shinyFlag   = "S"
	gmaxFlag    = "G"
	hiddenSlot  = "H"
	abilitySlot = "0"
)

// Meta carries the team-level fields every mon of a team shares.
type Meta struct {
	Format   string
	TeamName string
	Source   build.Source
	Gen      int
}

// Unpacker decodes packed teams against a dictionary.
type Unpacker struct {
	dex *dex.Dex
	gen int
}

// Option applies a configuration option to the Unpacker.
type Option func(*Unpacker)

// WithGen forces a generation instead of deriving it from the team format.
func WithGen(gen int) Option {
	return func(u *Unpacker) {
		if gen >= dex.MinGen && gen <= dex.MaxGen {
			u.gen = gen
		}
	}
}

// New creates an unpacker backed by d.
func New(d *dex.Dex, opts ...Option) *Unpacker {
	u := &Unpacker{dex: d}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Unpack decodes one stored team line. Any structural failure returns no
// records at all.
func (u *Unpacker) Unpack(line string) ([]build.Record, error) {
	line = strings.TrimSpace(line)
	format, rest, ok := strings.Cut(line, "]")
	if !ok || strings.Contains(format, "|") {
		return nil, fmt.Errorf("%w: missing format separator", ErrMalformed)
	}
	name, team, ok := strings.Cut(rest, "|")
	if !ok {
		return nil, fmt.Errorf("%w: missing team name separator", ErrMalformed)
	}

	meta := Meta{Format: format, TeamName: name, Source: build.SourceTeam}
	if strings.HasSuffix(format, boxSuffix) {
		meta.Format = strings.TrimSuffix(format, boxSuffix)
		meta.Source = build.SourceBox
	}
	meta.Gen = u.genFor(meta.Format)

	var out []build.Record
	for _, mon := range strings.Split(team, "]") {
		if strings.TrimSpace(mon) == "" {
			continue
		}
		rec, err := u.UnpackMon(mon, meta)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty team", ErrMalformed)
	}
	return out, nil
}

// UnpackAll decodes newline-separated team lines, keeping every team that
// decodes and joining the errors of those that do not.
func (u *Unpacker) UnpackAll(text string) ([]build.Record, error) {
	var (
		out  []build.Record
		errs []error
	)
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		recs, err := u.Unpack(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", i+1, err))
			continue
		}
		out = append(out, recs...)
	}
	return out, errors.Join(errs...)
}

func (u *Unpacker) genFor(format string) int {
	if u.gen != 0 {
		return u.gen
	}
	if g := dex.GenFromFormat(format); g != 0 {
		return g
	}
	return dex.DefaultGen
}

// UnpackMon decodes one positional record. The identity hash is computed only
// after every field is in place.
func (u *Unpacker) UnpackMon(text string, meta Meta) (build.Record, error) {
	f := strings.Split(text, "|")
	if len(f) < minFields {
		return build.Record{}, fmt.Errorf("%w: %d fields, want at least %d", ErrMalformed, len(f), minFields)
	}
	gen := meta.Gen
	if gen == 0 {
		gen = u.genFor(meta.Format)
	}

	speciesName := f[fieldSpecies]
	if speciesName == "" {
		speciesName = f[fieldNickname]
	}
	species, ok := u.dex.Species(speciesName)
	if !ok {
		return build.Record{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, speciesName)
	}

	r := build.Record{
		Source:   meta.Source,
		Gen:      gen,
		Format:   meta.Format,
		TeamName: meta.TeamName,
		Species:  species.Name,
	}
	if r.Source == "" {
		r.Source = build.SourceTeam
	}
	if nick := strings.TrimSpace(f[fieldNickname]); nick != "" && dex.ToID(nick) != dex.ToID(species.Name) {
		r.Nickname = nick
	}

	if dex.HasItems(gen) {
		if item, ok := u.dex.Item(f[fieldItem]); ok {
			r.Item = item
		}
	}
	if dex.HasAbilities(gen) {
		r.Ability = u.ability(species, f[fieldAbility])
	}
	if dex.HasNatures(gen) {
		if nature, ok := u.dex.Nature(f[fieldNature]); ok {
			r.Nature = nature
		}
	}

	for _, id := range strings.Split(f[fieldMoves], ",") {
		move, ok := u.dex.Move(id)
		if !ok || build.ContainsID(r.Moves, move) {
			continue
		}
		if len(r.Moves) < build.MaxMoves {
			r.Moves = append(r.Moves, move)
		} else {
			r.AltMoves = append(r.AltMoves, build.Bare(move))
		}
	}

	r.EVs = spread(f[fieldEVs], maxEV, dex.DefaultEV(gen))
	r.IVs = spread(f[fieldIVs], maxIV, dex.MaxIV(gen))

	if g := f[fieldGender]; (g == dex.GenderMale || g == dex.GenderFemale) && species.Gendered() {
		r.Gender = g
	}
	r.Shiny = f[fieldShiny] == shinyFlag
	r.Level = ParseField(f[fieldLevel]).Clamp(0, maxLevel).Or(dex.DefaultLevel)

	var trail []string
	if len(f) > fieldTrailing {
		trail = strings.Split(f[fieldTrailing], ",")
	}
	at := func(i int) string {
		if i < len(trail) {
			return trail[i]
		}
		return ""
	}
	r.Happiness = ParseField(at(trailHappiness)).Clamp(0, maxHappy).Or(dex.DefaultHappiness)
	if t, ok := u.dex.Type(at(trailHiddenPower)); ok && t != dex.UnknownType {
		r.HiddenPowerType = t
	}
	r.Pokeball = at(trailPokeball)
	r.DynamaxLevel = ParseField(at(trailDynamaxLevel)).Clamp(0, maxDynamax).Or(dex.DefaultDynamaxLevel)
	if t, ok := u.dex.Type(at(trailTeraType)); ok && t != dex.UnknownType {
		r.TeraType = t
	}
	if at(trailGigantamax) == gmaxFlag {
		r.Gigantamax = true
		if suffix := dex.MaxFormeSuffix(gen); suffix != "" {
			if s, ok := u.dex.Species(species.Name + suffix); ok {
				r.Species = s.Name
			}
		}
	}

	return r.Seal(), nil
}

// ability resolves an ability id or a slot marker ("0", "1", "H").
func (u *Unpacker) ability(species *dex.Species, field string) string {
	field = strings.TrimSpace(field)
	slots := species.Abilities
	switch {
	case field == "" && len(slots) == 1:
		return slots[0]
	case field == hiddenSlot && len(slots) > 0:
		return slots[len(slots)-1]
	case len(field) == 1 && field >= abilitySlot && field <= "1":
		if i := int(field[0] - '0'); i < len(slots) {
			return slots[i]
		}
		return ""
	}
	if a, ok := u.dex.Ability(field); ok {
		return a
	}
	return ""
}

// spread reads six comma-joined values, each with its own three-state default.
func spread(field string, limit, def int) build.Spread {
	parts := strings.Split(field, ",")
	out := make(build.Spread, build.StatCount)
	for _, st := range build.AllStats {
		var f Field
		if int(st) < len(parts) {
			f = ParseField(parts[st]).Clamp(0, limit)
		}
		out[st] = f.Or(def)
	}
	return out
}
