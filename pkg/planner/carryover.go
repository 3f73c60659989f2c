package planner

import (
	"fmt"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
	"tableflip.dev/planner/pkg/sortkey"
	"tableflip.dev/planner/pkg/timeutil"
)

// MigrateIncomplete returns the items of a past period that should move to
// toPeriod. Template items are left behind because the new period derives
// its own, as are hidden, deleted and empty draft items. Calendar items are
// carried as plain items, unlinked from the event they came from.
// Survivors are re-homed at the top of toPeriod with any times moved forward
// by the days between their period and toPeriod, and come back in reverse
// order so that inserting each one at the top keeps their original order.
func MigrateIncomplete(past []entry.PlannerEvent, toPeriod string) []entry.PlannerEvent {
	var kept []entry.PlannerEvent
	for _, e := range list.Sorted(past) {
		switch {
		case e.RecurringID != "":
			continue
		case e.Status == entry.StatusHidden, e.Status == entry.StatusDelete:
			continue
		case entry.IsEditing(e) && e.Empty():
			continue
		}

		moved := e.Clone()
		days := shiftDays(e.ListID, toPeriod)
		moved.ListID = toPeriod
		moved.CalendarID = ""
		moved.SortKey = sortkey.Top
		if entry.IsEditing(moved) {
			moved.Status = entry.StatusStatic
		}
		if moved.TimeConfig != nil {
			tc := moved.TimeConfig.Shift(days)
			moved.TimeConfig = &tc
		}
		kept = append(kept, moved)
	}

	out := make([]entry.PlannerEvent, len(kept))
	for i, e := range kept {
		out[len(kept)-1-i] = e
	}
	return out
}

// shiftDays is how far a carried item's times move. Items whose period
// cannot be read move one day.
func shiftDays(from, to string) int {
	days, err := timeutil.DaysBetween(from, to)
	if err != nil || days < 1 {
		return 1
	}
	return days
}

// InsertCarryover places migrated items into today's list one at a time.
// Untimed items land at the top and timed ones at their place in time.
func InsertCarryover(today, migrated []entry.PlannerEvent) ([]entry.PlannerEvent, bool, error) {
	out := list.Sorted(today)
	rebalanced := false
	for _, e := range migrated {
		if list.Index(out, e.ID) >= 0 {
			// Already carried over by an earlier rollover.
			continue
		}
		next, r, err := list.Reposition(out, e)
		if err != nil {
			return nil, rebalanced, fmt.Errorf("planner: carrying over %s: %w", e.ID, err)
		}
		out, rebalanced = next, rebalanced || r
	}
	return out, rebalanced, nil
}
