// Package sortkey generates fractional order keys for flat sortable lists.
//
// Keys are positive float64 values. Inserting between two neighbors takes the
// midpoint, inserting past either end halves or doubles the boundary key, so a
// single insert never touches unrelated items. When the float space between two
// neighbors runs out, Generate reports ErrKeySpaceExhausted and the caller is
// expected to Spread the list and retry.
package sortkey

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// Top is the sentinel parent key meaning "no parent": insert at the very
	// start of the list (or at the very end when inserting before nothing).
	// Items may also carry Top as their own key to request a top-of-list slot.
	Top float64 = -1

	// Step is the spacing used for fresh lists and for Spread.
	Step float64 = 1
)

var (
	// ErrKeySpaceExhausted is returned when no representable key lies strictly
	// between the requested neighbors.
	ErrKeySpaceExhausted = errors.New("sortkey: key space exhausted")

	// ErrUnknownParent is returned when the reference key is not in the list.
	ErrUnknownParent = errors.New("sortkey: reference key not in list")
)

// Generate returns a key that sorts immediately after parent in keys, or
// immediately before it when before is set. A parent of Top places the key at
// the start of the list (or, with before, at the end).
//
// keys does not need to be sorted and may contain the Top sentinel, which is
// ignored.
func Generate(parent float64, keys []float64, before bool) (float64, error) {
	sorted := Sorted(keys)

	if parent == Top {
		if len(sorted) == 0 {
			if before {
				return 2 * Step, nil
			}
			return Step, nil
		}
		if before {
			return checked(sorted[len(sorted)-1]*2, sorted[len(sorted)-1], math.Inf(1))
		}
		return checked(sorted[0]/2, 0, sorted[0])
	}

	i := sort.SearchFloat64s(sorted, parent)
	if i == len(sorted) || sorted[i] != parent {
		return 0, fmt.Errorf("%w: %v", ErrUnknownParent, parent)
	}

	if before {
		if i == 0 {
			return checked(parent/2, 0, parent)
		}
		prev := sorted[i-1]
		return checked(Between(prev, parent), prev, parent)
	}

	// Skip duplicates of parent so the new key lands past all of them.
	j := i
	for j+1 < len(sorted) && sorted[j+1] == parent {
		j++
	}
	if j == len(sorted)-1 {
		return checked(parent*2, parent, math.Inf(1))
	}
	next := sorted[j+1]
	return checked(Between(parent, next), parent, next)
}

// Between returns the midpoint of lo and hi.
func Between(lo, hi float64) float64 {
	return lo + (hi-lo)/2
}

// Spread returns n evenly spaced keys starting at Step.
func Spread(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * Step
	}
	return out
}

// Sorted returns a sorted copy of keys with Top sentinels removed.
func Sorted(keys []float64) []float64 {
	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		if k == Top {
			continue
		}
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// Valid reports whether k is usable as a stored key.
func Valid(k float64) bool {
	return k > 0 && !math.IsInf(k, 0) && !math.IsNaN(k)
}

func checked(candidate, lo, hi float64) (float64, error) {
	if !Valid(candidate) || candidate <= lo || candidate >= hi {
		return 0, fmt.Errorf("%w: between %v and %v", ErrKeySpaceExhausted, lo, hi)
	}
	return candidate, nil
}
