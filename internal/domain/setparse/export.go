package setparse

import (
	"fmt"
	"strings"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// Export writes a record in set notation. Parsing the output with a parser of
// the same generation yields a record with the same identity.
func Export(r build.Record) string {
	gen := r.Gen
	if gen == 0 {
		gen = dex.DefaultGen
	}

	species := r.Species
	gmax := false
	if suffix := dex.MaxFormeSuffix(gen); r.Gigantamax && suffix != "" && strings.HasSuffix(species, suffix) {
		species = strings.TrimSuffix(species, suffix)
		gmax = true
	}

	var b strings.Builder
	if r.Nickname != "" && r.Nickname != species {
		fmt.Fprintf(&b, "%s (%s)", r.Nickname, species)
	} else {
		b.WriteString(species)
	}
	if r.Gender == dex.GenderMale || r.Gender == dex.GenderFemale {
		fmt.Fprintf(&b, " (%s)", r.Gender)
	}
	if r.Item != "" {
		fmt.Fprintf(&b, " @ %s", r.Item)
	}
	b.WriteByte('\n')

	if r.Ability != "" {
		fmt.Fprintf(&b, "Ability: %s\n", r.Ability)
	}
	if r.Level != 0 && r.Level != dex.DefaultLevel {
		fmt.Fprintf(&b, "Level: %d\n", r.Level)
	}
	if r.Shiny {
		b.WriteString("Shiny: Yes\n")
	}
	if r.Happiness != 0 && r.Happiness != dex.DefaultHappiness {
		fmt.Fprintf(&b, "Happiness: %d\n", r.Happiness)
	}
	if r.DynamaxLevel != 0 && r.DynamaxLevel != dex.DefaultDynamaxLevel {
		fmt.Fprintf(&b, "Dynamax Level: %d\n", r.DynamaxLevel)
	}
	if gmax {
		b.WriteString("Gigantamax: Yes\n")
	}
	if r.TeraType != "" {
		fmt.Fprintf(&b, "Tera Type: %s\n", r.TeraType)
	}
	if line := spreadLine(r.EVs, dex.DefaultEV(gen)); line != "" {
		fmt.Fprintf(&b, "EVs: %s\n", line)
	}
	if r.Nature != "" {
		fmt.Fprintf(&b, "%s Nature\n", r.Nature)
	}
	if line := spreadLine(r.IVs, dex.MaxIV(gen)); line != "" {
		fmt.Fprintf(&b, "IVs: %s\n", line)
	}
	for _, m := range r.Moves {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	return b.String()
}

// spreadLine lists only stats that differ from the default.
func spreadLine(s build.Spread, def int) string {
	var parts []string
	for _, st := range build.AllStats {
		if v, ok := s.Get(st); ok && v != def {
			parts = append(parts, fmt.Sprintf("%d %s", v, st))
		}
	}
	return strings.Join(parts, " / ")
}

// ExportAll writes records as consecutive blocks separated by a blank line.
func ExportAll(records []build.Record) string {
	blocks := make([]string, 0, len(records))
	for _, r := range records {
		blocks = append(blocks, Export(r))
	}
	return strings.Join(blocks, "\n")
}
