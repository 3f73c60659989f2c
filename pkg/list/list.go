// Package list keeps flat sortable lists consistent: it merges edited items
// into a list by identity and places timed items so that the list stays in
// chronological order while untimed items keep their manual position.
package list

import (
	"fmt"
	"sort"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/sortkey"
)

// Sortable is an item that can be re-keyed without mutation.
type Sortable[T any] interface {
	entry.Item
	WithKey(float64) T
}

// InvariantError is raised with panic when a caller asks about an item that
// must be in a list but is not.
type InvariantError struct {
	Op string
	ID string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("list: %s: item %q is not in the list", e.Op, e.ID)
}

// Sanitize returns a copy of items with incoming merged in. The item whose
// identity is replaceID (or incoming's own identity when replaceID is empty)
// is replaced; otherwise incoming is appended. Keys are left untouched and
// the result is ordered by key.
func Sanitize[T entry.Item](items []T, incoming T, replaceID string) []T {
	if replaceID == "" {
		replaceID = incoming.Identity()
	}
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, it := range items {
		if !replaced && it.Identity() == replaceID {
			out = append(out, incoming)
			replaced = true
			continue
		}
		out = append(out, it)
	}
	if !replaced {
		out = append(out, incoming)
	}
	sortByKey(out)
	return out
}

// Sorted returns a copy of items ordered by key. Items with equal keys keep
// their relative order.
func Sorted[T entry.Item](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sortByKey(out)
	return out
}

// Keys returns the keys of items in the order given.
func Keys[T entry.Item](items []T) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.Key()
	}
	return out
}

// Index returns the position of the item with the given identity, or -1.
func Index[T entry.Item](items []T, id string) int {
	for i, it := range items {
		if it.Identity() == id {
			return i
		}
	}
	return -1
}

// ParentKey returns the key of the item immediately preceding item in key
// order, or sortkey.Top when item is first. It panics with *InvariantError
// when item is not in items.
func ParentKey[T entry.Item](item T, items []T) float64 {
	sorted := Sorted(items)
	i := Index(sorted, item.Identity())
	if i < 0 {
		panic(&InvariantError{Op: "parent key", ID: item.Identity()})
	}
	if i == 0 {
		return sortkey.Top
	}
	return sorted[i-1].Key()
}

// Rebalance rewrites every key in items to evenly spaced values, keeping the
// current order.
func Rebalance[T Sortable[T]](items []T) []T {
	sorted := Sorted(items)
	keys := sortkey.Spread(len(sorted))
	for i, it := range sorted {
		sorted[i] = it.WithKey(keys[i])
	}
	return sorted
}

func sortByKey[T entry.Item](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Key() < items[j].Key()
	})
}

func without[T entry.Item](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.Identity() != id {
			out = append(out, it)
		}
	}
	return out
}
