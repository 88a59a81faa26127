// Package build defines the candidate build record shared by every parser,
// matcher and applier, together with its identity hash.
package build

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/setres/internal/domain/dex"
)

// MaxMoves is the number of primary move slots.
const MaxMoves = 4

// Source tags where a record came from.
type Source string

// Known sources.
const (
	SourceCorpus  Source = "corpus"
	SourceUsage   Source = "usage"
	SourceTeam    Source = "local-team"
	SourceBox     Source = "local-box"
	SourceServer  Source = "server"
	SourceSheet   Source = "sheet"
	SourceImport  Source = "import"
	SourceBundled Source = "bundled"
)

// Authoritative reports whether the source reflects what the battle server
// itself asserted.
func (s Source) Authoritative() bool { return s == SourceServer }

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCorpus, SourceUsage, SourceTeam, SourceBox, SourceServer, SourceSheet, SourceImport, SourceBundled:
		return true
	default:
		return false
	}
}

// Record is one candidate build. Records are treated as immutable once sealed.
type Record struct {
	ID     string `json:"id"`
	Source Source `json:"source"`
	Gen    int    `json:"gen"`
	Format string `json:"format,omitempty"`

	Species  string `json:"species"`
	Name     string `json:"name,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	TeamName string `json:"teamName,omitempty"`

	Level           int    `json:"level,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Shiny           bool   `json:"shiny,omitempty"`
	Happiness       int    `json:"happiness,omitempty"`
	HiddenPowerType string `json:"hiddenPowerType,omitempty"`
	Pokeball        string `json:"pokeball,omitempty"`
	Gigantamax      bool   `json:"gigantamax,omitempty"`
	DynamaxLevel    int    `json:"dynamaxLevel,omitempty"`

	Item         string        `json:"item,omitempty"`
	AltItems     []Alt[string] `json:"altItems,omitempty"`
	Ability      string        `json:"ability,omitempty"`
	AltAbilities []Alt[string] `json:"altAbilities,omitempty"`
	Nature       string        `json:"nature,omitempty"`
	IVs          Spread        `json:"ivs,omitempty"`
	EVs          Spread        `json:"evs,omitempty"`
	Moves        []string      `json:"moves,omitempty"`
	AltMoves     []Alt[string] `json:"altMoves,omitempty"`
	TeraType     string        `json:"teraType,omitempty"`
	AltTeraTypes []Alt[string] `json:"altTeraTypes,omitempty"`
}

// Seal computes the identity hash and returns the record carrying it.
func (r Record) Seal() Record {
	r.ID = Identity(r)
	return r
}

// Identity fingerprints the damage-relevant fields of a record. Cosmetic
// fields (nickname, set name, team name, source, format) never participate,
// and primary moves are order-insensitive.
func Identity(r Record) string {
	gen := r.Gen
	if gen == 0 {
		gen = dex.DefaultGen
	}

	moves := make([]string, 0, len(r.Moves))
	for _, m := range r.Moves {
		moves = append(moves, dex.ToID(m))
	}
	sort.Strings(moves)

	var b strings.Builder
	b.WriteString(dex.ToID(r.Species))
	b.WriteByte('|')
	b.WriteString(dex.ToID(r.Ability))
	b.WriteByte('|')
	b.WriteString(dex.ToID(r.Item))
	b.WriteByte('|')
	b.WriteString(dex.ToID(r.Nature))
	b.WriteByte('|')
	b.WriteString(strings.Join(moves, ","))
	b.WriteByte('|')
	writeStats(&b, r.IVs.Fill(dex.MaxIV(gen)))
	b.WriteByte('|')
	writeStats(&b, r.EVs.Fill(dex.DefaultEV(gen)))

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

func writeStats(b *strings.Builder, s Stats) {
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
}

// HasMove reports whether the move is a primary or alternative move.
func (r *Record) HasMove(move string) bool {
	return containsID(r.Moves, move) || altContainsID(r.AltMoves, move)
}

// HasItem reports whether the item is the primary or an alternative item.
func (r *Record) HasItem(item string) bool {
	return dex.ToID(r.Item) == dex.ToID(item) || altContainsID(r.AltItems, item)
}

// HasAbility reports whether the ability is the primary or an alternative ability.
func (r *Record) HasAbility(ability string) bool {
	return dex.ToID(r.Ability) == dex.ToID(ability) || altContainsID(r.AltAbilities, ability)
}

func containsID(values []string, name string) bool {
	id := dex.ToID(name)
	for _, v := range values {
		if dex.ToID(v) == id {
			return true
		}
	}
	return false
}

func altContainsID(alts []Alt[string], name string) bool {
	id := dex.ToID(name)
	for _, a := range alts {
		if dex.ToID(a.Value()) == id {
			return true
		}
	}
	return false
}

// ContainsID is the id-insensitive membership test used across packages.
func ContainsID(values []string, name string) bool { return containsID(values, name) }
