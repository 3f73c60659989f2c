package list

import (
	"errors"
	"sort"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/sortkey"
)

// ResolveSortKey returns the key event should carry in items so that timed
// items stay in chronological order. items must already contain an item with
// event's identity; event's own fields take precedence over that copy.
//
// Untimed and hidden events keep their manual position. A timed event keeps
// its key when it already sits between its nearest timed neighbors, otherwise
// it is placed just before the first item that starts at or after it, or just
// after the last item that starts before it.
func ResolveSortKey[T entry.Item](event T, items []T) (float64, error) {
	if Index(items, event.Identity()) < 0 {
		panic(&InvariantError{Op: "resolve sort key", ID: event.Identity()})
	}
	others := without(items, event.Identity())
	otherKeys := Keys(others)

	key, err := keepPosition(event.Key(), otherKeys)
	if err != nil {
		return 0, err
	}

	at, ok := timeOf(event)
	if !ok {
		return key, nil
	}
	if inOrder(at, key, others) {
		return key, nil
	}

	sorted := Sorted(others)
	for _, it := range sorted {
		t, ok := placedTime(it)
		if ok && t.Compare(at) >= 0 {
			return sortkey.Generate(it.Key(), otherKeys, true)
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		t, ok := placedTime(sorted[i])
		if ok && t.Compare(at) < 0 {
			return sortkey.Generate(sorted[i].Key(), otherKeys, false)
		}
	}
	return key, nil
}

// Reposition merges item into items and moves it to the key ResolveSortKey
// chooses. When the key space around the target is exhausted the whole list
// is rebalanced and the placement retried once; the second return value
// reports whether that happened.
func Reposition[T Sortable[T]](items []T, item T) ([]T, bool, error) {
	merged := Sanitize(items, item, "")
	key, err := ResolveSortKey(item, merged)
	rebalanced := false
	if errors.Is(err, sortkey.ErrKeySpaceExhausted) {
		merged = Rebalance(merged)
		item = merged[Index(merged, item.Identity())]
		key, err = ResolveSortKey(item, merged)
		rebalanced = true
	}
	if err != nil {
		return nil, rebalanced, err
	}
	return Sanitize(merged, item.WithKey(key), ""), rebalanced, nil
}

// Normalize repositions every item until the list is time ordered. Lists
// that are already ordered are returned as a sorted copy. If repeated passes
// cannot settle the list, the keys held by timed items are dealt back out to
// them in chronological order.
func Normalize[T Sortable[T]](items []T) ([]T, bool, error) {
	out := Sorted(items)
	rebalanced := false
	for pass := 0; pass < len(out) && !TimeOrdered(out); pass++ {
		for _, it := range Sorted(out) {
			current := out[Index(out, it.Identity())]
			next, r, err := Reposition(out, current)
			if err != nil {
				return nil, rebalanced, err
			}
			out = next
			rebalanced = rebalanced || r
		}
	}
	if !TimeOrdered(out) {
		out = redeal(out)
	}
	return out, rebalanced, nil
}

// TimeOrdered reports whether every timed item in key order starts no earlier
// than the timed item before it. Hidden items are ignored.
func TimeOrdered[T entry.Item](items []T) bool {
	var prev entry.TimeValue
	seen := false
	for _, it := range Sorted(items) {
		t, ok := timeOf(it)
		if !ok {
			continue
		}
		if seen && t.Compare(prev) < 0 {
			return false
		}
		prev, seen = t, true
	}
	return true
}

// keepPosition handles an item that may stay where it is: a top sentinel (or
// any unusable key) gets a fresh top-of-list key and a collision is moved
// just below the item it collides with.
func keepPosition(key float64, otherKeys []float64) (float64, error) {
	if !sortkey.Valid(key) {
		return sortkey.Generate(sortkey.Top, otherKeys, false)
	}
	for _, k := range otherKeys {
		if k == key {
			return sortkey.Generate(key, otherKeys, false)
		}
	}
	return key, nil
}

// inOrder reports whether an item at key with time at sits between its
// nearest timed neighbors. Equal times on either side count as in order.
func inOrder[T entry.Item](at entry.TimeValue, key float64, others []T) bool {
	var (
		prev, next       entry.TimeValue
		prevKey, nextKey float64
		hasPrev, hasNext bool
	)
	for _, it := range others {
		t, ok := placedTime(it)
		if !ok {
			continue
		}
		k := it.Key()
		if k < key && (!hasPrev || k > prevKey) {
			prev, prevKey, hasPrev = t, k, true
		}
		if k > key && (!hasNext || k < nextKey) {
			next, nextKey, hasNext = t, k, true
		}
	}
	if hasPrev && prev.Compare(at) > 0 {
		return false
	}
	if hasNext && at.Compare(next) > 0 {
		return false
	}
	return true
}

func redeal[T Sortable[T]](items []T) []T {
	out := Sorted(items)
	var slots []int
	var timed []T
	for i, it := range out {
		if _, ok := timeOf(it); ok {
			slots = append(slots, i)
			timed = append(timed, it)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		a, _ := timeOf(timed[i])
		b, _ := timeOf(timed[j])
		return a.Compare(b) < 0
	})
	keys := Keys(out)
	for j, slot := range slots {
		out[slot] = timed[j].WithKey(keys[slot])
	}
	sortByKey(out)
	return out
}

// timeOf returns the ordering time of it. Hidden items are untimed.
func timeOf(it entry.Item) (entry.TimeValue, bool) {
	if it.State() == entry.StatusHidden {
		return entry.TimeValue{}, false
	}
	return it.Time()
}

// placedTime is timeOf for neighbors; items still waiting for a key do not
// anchor anything.
func placedTime(it entry.Item) (entry.TimeValue, bool) {
	if !sortkey.Valid(it.Key()) {
		return entry.TimeValue{}, false
	}
	return timeOf(it)
}
