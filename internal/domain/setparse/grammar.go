package setparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// Limits enforced on numeric lines.
const (
	maxLevel        = 100
	maxHappiness    = 255
	maxDynamaxLevel = 10
	maxEV           = 255
	maxIV           = 31
	movesPerLine    = 3
)

// draft accumulates one block before it is sealed.
type draft struct {
	rec  build.Record
	gmax bool
}

// rule is one line grammar. Rules are tried in slice order and the first
// match wins, so the header rule, which accepts almost anything, sits last.
type rule struct {
	name    string
	pattern *regexp.Regexp
	apply   func(p *Parser, d *draft, m []string)
}

var (
	abilityRe   = regexp.MustCompile(`(?i)^ability:\s*(.+)$`)
	levelRe     = regexp.MustCompile(`(?i)^level:\s*(\d+)$`)
	shinyRe     = regexp.MustCompile(`(?i)^shiny:\s*(yes|no)$`)
	happinessRe = regexp.MustCompile(`(?i)^happiness:\s*(\d+)$`)
	teraRe      = regexp.MustCompile(`(?i)^tera\s*type:\s*(.+)$`)
	gmaxRe      = regexp.MustCompile(`(?i)^gigantamax:\s*(yes|no)$`)
	dmaxRe      = regexp.MustCompile(`(?i)^dynamax\s*level:\s*(\d+)$`)
	hiddenRe    = regexp.MustCompile(`(?i)^hidden\s*power:\s*(.+)$`)
	evsRe       = regexp.MustCompile(`(?i)^evs:\s*(.+)$`)
	ivsRe       = regexp.MustCompile(`(?i)^ivs:\s*(.+)$`)
	natureRe    = regexp.MustCompile(`(?i)^([a-z]+)\s+nature$`)
	moveRe      = regexp.MustCompile(`^[-~]\s*(.+)$`)
	headerRe    = regexp.MustCompile(`^(.+)$`)

	genderRe   = regexp.MustCompile(`\s*\(([MF])\)$`)
	nicknameRe = regexp.MustCompile(`^(.+?)\s*\(([^()]+)\)$`)
	statRe     = regexp.MustCompile(`^(\d+)\s+([A-Za-z]+)$`)
	bracketRe  = regexp.MustCompile(`\[([^\]]+)\]`)
	moveSepRe  = regexp.MustCompile(`\s*[/,]\s*`)
)

// rules is the precedence-ordered grammar table.
var rules = []rule{ //nolint:gochecknoglobals // fixed grammar table
	{name: "ability", pattern: abilityRe, apply: (*Parser).applyAbility},
	{name: "level", pattern: levelRe, apply: (*Parser).applyLevel},
	{name: "shiny", pattern: shinyRe, apply: (*Parser).applyShiny},
	{name: "happiness", pattern: happinessRe, apply: (*Parser).applyHappiness},
	{name: "tera", pattern: teraRe, apply: (*Parser).applyTera},
	{name: "gigantamax", pattern: gmaxRe, apply: (*Parser).applyGigantamax},
	{name: "dynamax", pattern: dmaxRe, apply: (*Parser).applyDynamax},
	{name: "hiddenpower", pattern: hiddenRe, apply: (*Parser).applyHiddenPower},
	{name: "evs", pattern: evsRe, apply: (*Parser).applyEVs},
	{name: "ivs", pattern: ivsRe, apply: (*Parser).applyIVs},
	{name: "nature", pattern: natureRe, apply: (*Parser).applyNature},
	{name: "move", pattern: moveRe, apply: (*Parser).applyMove},
	{name: "header", pattern: headerRe, apply: (*Parser).applyHeader},
}

// matchRule returns the first rule accepting the line.
func matchRule(line string) (*rule, []string) {
	for i := range rules {
		if m := rules[i].pattern.FindStringSubmatch(line); m != nil {
			return &rules[i], m
		}
	}
	return nil, nil
}

func (p *Parser) applyAbility(d *draft, m []string) {
	if !dex.HasAbilities(p.gen) {
		return
	}
	if a, ok := p.dex.Ability(m[1]); ok {
		d.rec.Ability = a
	}
}

func (p *Parser) applyLevel(d *draft, m []string) {
	if n, ok := bounded(m[1], 1, maxLevel); ok {
		d.rec.Level = n
	}
}

func (p *Parser) applyShiny(d *draft, m []string) {
	d.rec.Shiny = strings.EqualFold(m[1], "yes")
}

func (p *Parser) applyHappiness(d *draft, m []string) {
	if n, ok := bounded(m[1], 0, maxHappiness); ok {
		d.rec.Happiness = n
	}
}

func (p *Parser) applyTera(d *draft, m []string) {
	if t, ok := p.dex.Type(m[1]); ok && t != dex.UnknownType {
		d.rec.TeraType = t
	}
}

func (p *Parser) applyGigantamax(d *draft, m []string) {
	d.gmax = strings.EqualFold(m[1], "yes")
}

func (p *Parser) applyDynamax(d *draft, m []string) {
	if n, ok := bounded(m[1], 0, maxDynamaxLevel); ok {
		d.rec.DynamaxLevel = n
	}
}

func (p *Parser) applyHiddenPower(d *draft, m []string) {
	if t, ok := p.dex.Type(m[1]); ok && t != dex.UnknownType {
		d.rec.HiddenPowerType = t
	}
}

func (p *Parser) applyEVs(d *draft, m []string) {
	d.rec.EVs = mergeSpread(d.rec.EVs, parseSpread(m[1], maxEV))
}

func (p *Parser) applyIVs(d *draft, m []string) {
	d.rec.IVs = mergeSpread(d.rec.IVs, parseSpread(m[1], maxIV))
}

func (p *Parser) applyNature(d *draft, m []string) {
	if !dex.HasNatures(p.gen) {
		return
	}
	if n, ok := p.dex.Nature(m[1]); ok {
		d.rec.Nature = n
	}
}

// applyMove fills one move slot. The first verified move of the line takes a
// primary slot when one is free; everything else lands in the alternative pool.
func (p *Parser) applyMove(d *draft, m []string) {
	names := moveSepRe.Split(strings.TrimSpace(m[1]), -1)
	if len(names) > movesPerLine {
		names = names[:movesPerLine]
	}
	first := true
	for _, raw := range names {
		move, ok := p.dex.Move(bracketRe.ReplaceAllString(raw, "$1"))
		if !ok {
			continue
		}
		if first {
			first = false
			if len(d.rec.Moves) < build.MaxMoves && !build.ContainsID(d.rec.Moves, move) {
				d.rec.Moves = append(d.rec.Moves, move)
				continue
			}
		}
		if build.ContainsID(d.rec.Moves, move) || build.ContainsID(build.Values(d.rec.AltMoves), move) {
			continue
		}
		d.rec.AltMoves = append(d.rec.AltMoves, build.Bare(move))
	}
}

// applyHeader parses "Nickname (Species) (M) @ Item". Only the first header of
// a block counts.
func (p *Parser) applyHeader(d *draft, m []string) {
	if d.rec.Species != "" {
		return
	}
	h, ok := p.parseHeader(m[1])
	if !ok {
		return
	}
	d.rec.Species = h.species.Name
	d.rec.Nickname = h.nickname
	if h.gender != "" && h.species.Gendered() {
		d.rec.Gender = h.gender
	}
	if h.item != "" && dex.HasItems(p.gen) {
		if item, ok := p.dex.Item(h.item); ok {
			d.rec.Item = item
		}
	}
}

type header struct {
	species  *dex.Species
	nickname string
	gender   string
	item     string
}

func (p *Parser) parseHeader(line string) (header, bool) {
	var h header
	left, item, _ := strings.Cut(line, "@")
	h.item = strings.TrimSpace(item)
	left = strings.TrimSpace(left)

	if g := genderRe.FindStringSubmatch(left); g != nil {
		h.gender = g[1]
		left = strings.TrimSpace(left[:len(left)-len(g[0])])
	}

	if n := nicknameRe.FindStringSubmatch(left); n != nil {
		if s, ok := p.dex.Species(n[2]); ok {
			h.species = s
			h.nickname = strings.TrimSpace(n[1])
			return h, true
		}
	}
	if s, ok := p.dex.Species(left); ok {
		h.species = s
		return h, true
	}
	return header{}, false
}

func parseSpread(text string, limit int) build.Spread {
	out := build.Spread{}
	for _, part := range strings.Split(text, "/") {
		m := statRe.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		v, ok := bounded(m[1], 0, limit)
		if !ok {
			continue
		}
		st, ok := build.ParseStat(m[2])
		if !ok {
			continue
		}
		out[st] = v
		if strings.EqualFold(m[2], "spc") {
			out[build.SpD] = v
		}
	}
	return out
}

func mergeSpread(dst, src build.Spread) build.Spread {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = build.Spread{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func bounded(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}
