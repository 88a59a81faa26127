// Package setparse reads human-authored set notation into build records and
// writes records back out in the same notation.
package setparse

import (
	"strings"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
)

// Parser turns set-notation text into build records. It is safe for
// concurrent use.
type Parser struct {
	dex    *dex.Dex
	gen    int
	format string
	source build.Source
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithGen sets the generation whose mechanics gate ability, item and nature lines.
func WithGen(gen int) Option {
	return func(p *Parser) {
		if gen >= dex.MinGen && gen <= dex.MaxGen {
			p.gen = gen
		}
	}
}

// WithFormat stamps parsed records with a format and, unless WithGen was
// given, derives the generation from it.
func WithFormat(format string) Option {
	return func(p *Parser) {
		p.format = format
	}
}

// WithSource tags parsed records.
func WithSource(source build.Source) Option {
	return func(p *Parser) {
		if source != "" {
			p.source = source
		}
	}
}

// New creates a parser backed by d.
func New(d *dex.Dex, opts ...Option) *Parser {
	p := &Parser{
		dex:    d,
		source: build.SourceImport,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.gen == 0 {
		p.gen = dex.GenFromFormat(p.format)
	}
	if p.gen == 0 {
		p.gen = dex.DefaultGen
	}
	return p
}

// Gen returns the generation the parser applies.
func (p *Parser) Gen() int { return p.gen }

// Parse reads one set block. It reports false when no forme could be
// identified; callers must not treat that as an empty build.
func (p *Parser) Parse(text string) (build.Record, bool) {
	return p.ParseLines(splitLines(text))
}

// ParseLines reads one set block that is already split into lines. Lines no
// grammar accepts are ignored.
func (p *Parser) ParseLines(lines []string) (build.Record, bool) {
	d := &draft{rec: build.Record{
		Source: p.source,
		Gen:    p.gen,
		Format: p.format,
	}}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r, m := matchRule(line)
		if r == nil {
			continue
		}
		r.apply(p, d, m)
	}
	if d.rec.Species == "" {
		return build.Record{}, false
	}
	p.finish(d)
	return d.rec.Seal(), true
}

func (p *Parser) finish(d *draft) {
	if !d.gmax {
		return
	}
	suffix := dex.MaxFormeSuffix(p.gen)
	if suffix == "" {
		return
	}
	if s, ok := p.dex.Species(d.rec.Species + suffix); ok {
		d.rec.Species = s.Name
		d.rec.Gigantamax = true
	}
}

// Split breaks a blob of consecutive set blocks into per-participant blocks.
// A block starts at every line that only the header grammar accepts, whether
// or not it names a known forme, so an unknown block never bleeds into the
// one before it.
func (p *Parser) Split(text string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range splitLines(text) {
		if p.isHeader(line) && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// ParseAll splits text into blocks and parses each one. Blocks without a
// forme are dropped.
func (p *Parser) ParseAll(text string) []build.Record {
	var out []build.Record
	for _, block := range p.Split(text) {
		if rec, ok := p.ParseLines(block); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (p *Parser) isHeader(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	r, _ := matchRule(line)
	return r != nil && r.name == "header"
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
