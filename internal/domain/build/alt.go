package build

import (
	"encoding/json"
	"fmt"
)

// Alt is one entry of an alternative pool: either a bare value or a value
// carrying the fraction of games it was observed in.
type Alt[T any] struct {
	value    T
	fraction float64
	weighted bool
}

// Bare wraps a value with no usage statistic.
func Bare[T any](v T) Alt[T] { return Alt[T]{value: v} }

// Weighted wraps a value with its usage fraction, clamped to [0,1].
func Weighted[T any](v T, fraction float64) Alt[T] {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	return Alt[T]{value: v, fraction: fraction, weighted: true}
}

// Value returns the wrapped value regardless of the tag.
func (a Alt[T]) Value() T { return a.value }

// Fraction returns the usage fraction and whether one is known.
func (a Alt[T]) Fraction() (float64, bool) { return a.fraction, a.weighted }

// Match dispatches on the tag.
func (a Alt[T]) Match(bare func(T), weighted func(T, float64)) {
	if a.weighted {
		weighted(a.value, a.fraction)
		return
	}
	bare(a.value)
}

// MarshalJSON encodes bare values as the value and weighted ones as [value, fraction].
func (a Alt[T]) MarshalJSON() ([]byte, error) {
	if a.weighted {
		return json.Marshal([]any{a.value, a.fraction})
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (a *Alt[T]) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil && len(pair) == 2 {
		var v T
		var f float64
		if err := json.Unmarshal(pair[0], &v); err != nil {
			return fmt.Errorf("alt value: %w", err)
		}
		if err := json.Unmarshal(pair[1], &f); err != nil {
			return fmt.Errorf("alt fraction: %w", err)
		}
		*a = Weighted(v, f)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("alt value: %w", err)
	}
	*a = Bare(v)
	return nil
}

// Values strips the tags.
func Values[T any](alts []Alt[T]) []T {
	out := make([]T, len(alts))
	for i, a := range alts {
		out[i] = a.value
	}
	return out
}

// Bares wraps every value as a bare alternative.
func Bares[T any](vs []T) []Alt[T] {
	out := make([]Alt[T], len(vs))
	for i, v := range vs {
		out[i] = Bare(v)
	}
	return out
}
