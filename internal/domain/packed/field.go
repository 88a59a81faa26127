package packed

import (
	"strconv"
	"strings"
)

type fieldState uint8

const (
	absent fieldState = iota
	zero
	value
)

// Field is a positional numeric field. An empty field means "use the
// default", a literal 0 means zero, anything else is the value itself.
// Keeping the three states apart stops a zero from collapsing into the default.
type Field struct {
	state fieldState
	n     int
}

// ParseField reads one positional numeric field. Unparseable text counts as absent.
func ParseField(s string) Field {
	s = strings.TrimSpace(s)
	if s == "" {
		return Field{}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Field{}
	}
	if n == 0 {
		return Field{state: zero}
	}
	return Field{state: value, n: n}
}

// Absent reports whether the field was empty.
func (f Field) Absent() bool { return f.state == absent }

// Zero reports whether the field held a literal zero.
func (f Field) Zero() bool { return f.state == zero }

// Or returns the parsed number, or def when the field was empty.
func (f Field) Or(def int) int {
	switch f.state {
	case zero:
		return 0
	case value:
		return f.n
	default:
		return def
	}
}

// Clamp bounds a present value to [lo, hi]; absent fields stay absent.
func (f Field) Clamp(lo, hi int) Field {
	if f.state == absent {
		return f
	}
	n := f.Or(0)
	switch {
	case n < lo:
		n = lo
	case n > hi:
		n = hi
	}
	if n == 0 {
		return Field{state: zero}
	}
	return Field{state: value, n: n}
}
