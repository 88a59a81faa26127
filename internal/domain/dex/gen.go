package dex

import (
	"strconv"
	"strings"
)

// Generation bounds.
const (
	MinGen     = 1
	MaxGen     = 9
	DefaultGen = 9
)

// Defaults applied to unspecified numeric fields.
const (
	DefaultLevel        = 100
	DefaultHappiness    = 255
	DefaultDynamaxLevel = 10
	maxStatTotal        = 510
	legacyEV            = 252
	legacyIV            = 30
	modernIV            = 31
)

// HasItems reports whether held items exist in gen.
func HasItems(gen int) bool { return gen >= 2 }

// HasAbilities reports whether abilities exist in gen.
func HasAbilities(gen int) bool { return gen >= 3 }

// HasNatures reports whether natures exist in gen.
func HasNatures(gen int) bool { return gen >= 3 }

// MaxIV is the legal maximum (and default) individual value. Gens 1-2 store
// DVs doubled, so 15 becomes 30.
func MaxIV(gen int) int {
	if gen <= 2 {
		return legacyIV
	}
	return modernIV
}

// DefaultEV is the value assumed for an unspecified effort value.
func DefaultEV(gen int) int {
	if gen <= 2 {
		return legacyEV
	}
	return 0
}

// MaxEVTotal is the legal effort value budget across all six stats.
func MaxEVTotal(gen int) int {
	if gen <= 2 {
		return legacyEV * 6
	}
	return maxStatTotal
}

// MaxFormeSuffix is the suffix of the gigantamax forme, empty when gen has none.
func MaxFormeSuffix(gen int) string {
	if gen == 8 {
		return "-Gmax"
	}
	return ""
}

// GenFromFormat extracts N from a "genN..." format id. Zero means unknown.
func GenFromFormat(format string) int {
	id := ToID(format)
	if !strings.HasPrefix(id, "gen") {
		return 0
	}
	end := len("gen")
	for end < len(id) && id[end] >= '0' && id[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(id[len("gen"):end])
	if err != nil || n < MinGen || n > MaxGen {
		return 0
	}
	return n
}

// IsRandomFormat reports whether the format generates random builds.
func IsRandomFormat(format string) bool {
	return strings.Contains(ToID(format), "random")
}
