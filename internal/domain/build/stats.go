package build

import (
	"fmt"
	"strings"
)

// Stat indexes the six battle stats.
type Stat int

// Stats in display order.
const (
	HP Stat = iota
	Atk
	Def
	SpA
	SpD
	Spe
)

// StatCount is the number of stats in a spread.
const StatCount = 6

// AllStats lists every stat in display order.
var AllStats = [StatCount]Stat{HP, Atk, Def, SpA, SpD, Spe} //nolint:gochecknoglobals // fixed table

var statNames = [StatCount]string{"HP", "Atk", "Def", "SpA", "SpD", "Spe"} //nolint:gochecknoglobals // fixed table

func (s Stat) String() string {
	if s < 0 || int(s) >= StatCount {
		return fmt.Sprintf("Stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat accepts the usual set-notation abbreviations. "Spc" (the gen 1
// special stat) maps to SpA; callers mirror it into SpD.
func ParseStat(name string) (Stat, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hp":
		return HP, true
	case "atk", "attack":
		return Atk, true
	case "def", "defense":
		return Def, true
	case "spa", "spatk", "spc", "special":
		return SpA, true
	case "spd", "spdef":
		return SpD, true
	case "spe", "speed":
		return Spe, true
	}
	return 0, false
}

// Spread is a partial stat table; a missing key means the stat was never specified.
type Spread map[Stat]int

// Get returns a stat and whether it was specified.
func (s Spread) Get(stat Stat) (int, bool) {
	v, ok := s[stat]
	return v, ok
}

// Fill expands the spread to a full table, defaulting missing stats to def.
func (s Spread) Fill(def int) Stats {
	var out Stats
	for _, st := range AllStats {
		if v, ok := s[st]; ok {
			out[st] = v
		} else {
			out[st] = def
		}
	}
	return out
}

// Clone returns an independent copy.
func (s Spread) Clone() Spread {
	if s == nil {
		return nil
	}
	out := make(Spread, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Stats is a complete six-stat table.
type Stats [StatCount]int

// Total sums the table.
func (s Stats) Total() int {
	t := 0
	for _, v := range s {
		t += v
	}
	return t
}

// Spread converts the full table back to a spread with every stat specified.
func (s Stats) Spread() Spread {
	out := make(Spread, StatCount)
	for _, st := range AllStats {
		out[st] = s[st]
	}
	return out
}

// MarshalText encodes the stat by its abbreviation so spreads read naturally in JSON.
func (s Stat) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= StatCount {
		return nil, fmt.Errorf("invalid stat %d", int(s))
	}
	return []byte(statNames[s]), nil
}

// UnmarshalText accepts any abbreviation ParseStat understands.
func (s *Stat) UnmarshalText(text []byte) error {
	st, ok := ParseStat(string(text))
	if !ok {
		return fmt.Errorf("unknown stat %q", text)
	}
	*s = st
	return nil
}
