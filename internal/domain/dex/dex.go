// Package dex holds the authoritative name dictionary used to validate parsed
// builds, resolve packed ids back to display names and group forme aliases.
package dex

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/dex.yaml
var bundled []byte

// Gender values a species may be locked to.
const (
	GenderMale       = "M"
	GenderFemale     = "F"
	GenderGenderless = "N"
)

// UnknownType is the sentinel type that is never a valid tera type.
const UnknownType = "???"

// Species describes one forme.
type Species struct {
	Name      string   `yaml:"name"`
	Base      string   `yaml:"base"`
	Gender    string   `yaml:"gender"`
	Abilities []string `yaml:"abilities"`
	Aliases   []string `yaml:"aliases"`
}

// Gendered reports whether the forme can be either gender.
func (s *Species) Gendered() bool { return s.Gender == "" }

type document struct {
	Species   []Species `yaml:"species"`
	Abilities []string  `yaml:"abilities"`
	Items     []string  `yaml:"items"`
	Moves     []string  `yaml:"moves"`
	Natures   []string  `yaml:"natures"`
	Types     []string  `yaml:"types"`
}

// Dex is an immutable lookup table keyed by normalised id.
type Dex struct {
	species   map[string]*Species
	aliases   map[string][]string
	abilities map[string]string
	items     map[string]string
	moves     map[string]string
	natures   map[string]string
	types     map[string]string
}

// Bundled returns the dictionary compiled into the binary.
func Bundled() *Dex {
	d, err := Decode(bytes.NewReader(bundled))
	if err != nil {
		panic(fmt.Sprintf("dex: bundled data is invalid: %v", err))
	}
	return d
}

// Open loads a dictionary from a YAML file.
func Open(path string) (*Dex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads a YAML dictionary.
func Decode(r io.Reader) (*Dex, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if len(doc.Species) == 0 {
		return nil, fmt.Errorf("%w: no species", ErrLoad)
	}

	d := &Dex{
		species:   make(map[string]*Species, len(doc.Species)),
		aliases:   make(map[string][]string),
		abilities: index(doc.Abilities),
		items:     index(doc.Items),
		moves:     index(doc.Moves),
		natures:   index(doc.Natures),
		types:     index(doc.Types),
	}
	for i := range doc.Species {
		s := doc.Species[i]
		if s.Name == "" {
			continue
		}
		d.species[ToID(s.Name)] = &s
	}
	d.buildAliases()
	return d, nil
}

func index(names []string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			m[ToID(n)] = n
		}
	}
	return m
}

// buildAliases computes the symmetric closure of the declared alias groups so
// every member maps to the full group.
func (d *Dex) buildAliases() {
	groups := make(map[string]map[string]struct{})
	link := func(a, b string) {
		ga, gb := groups[a], groups[b]
		switch {
		case ga == nil && gb == nil:
			g := map[string]struct{}{a: {}, b: {}}
			groups[a], groups[b] = g, g
		case ga == nil:
			gb[a] = struct{}{}
			groups[a] = gb
		case gb == nil:
			ga[b] = struct{}{}
			groups[b] = ga
		case !sameGroup(ga, gb):
			for k := range gb {
				ga[k] = struct{}{}
				groups[k] = ga
			}
		}
	}
	for id, s := range d.species {
		for _, a := range s.Aliases {
			link(id, ToID(a))
		}
	}
	for id, g := range groups {
		names := make([]string, 0, len(g))
		for member := range g {
			if member == id {
				continue
			}
			if s, ok := d.species[member]; ok {
				names = append(names, s.Name)
			} else {
				names = append(names, member)
			}
		}
		sort.Strings(names)
		d.aliases[id] = names
	}
}

func sameGroup(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Species resolves a forme by name or id.
func (d *Dex) Species(name string) (*Species, bool) {
	s, ok := d.species[ToID(name)]
	return s, ok
}

// Aliases returns the forme itself followed by every alias sharing its builds.
func (d *Dex) Aliases(name string) []string {
	id := ToID(name)
	out := []string{name}
	if s, ok := d.species[id]; ok {
		out[0] = s.Name
	}
	return append(out, d.aliases[id]...)
}

// Ability returns the canonical ability name.
func (d *Dex) Ability(name string) (string, bool) { return lookup(d.abilities, name) }

// Item returns the canonical item name.
func (d *Dex) Item(name string) (string, bool) { return lookup(d.items, name) }

// Move returns the canonical move name.
func (d *Dex) Move(name string) (string, bool) { return lookup(d.moves, name) }

// Nature returns the canonical nature name.
func (d *Dex) Nature(name string) (string, bool) { return lookup(d.natures, name) }

// Type returns the canonical type name.
func (d *Dex) Type(name string) (string, bool) {
	if strings.TrimSpace(name) == UnknownType {
		return UnknownType, true
	}
	return lookup(d.types, name)
}

func lookup(m map[string]string, name string) (string, bool) {
	id := ToID(name)
	if id == "" {
		return "", false
	}
	v, ok := m[id]
	return v, ok
}

// ToID lowercases a name and strips everything that is not a letter or digit.
func ToID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
