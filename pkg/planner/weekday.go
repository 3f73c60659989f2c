package planner

import (
	"fmt"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
	"tableflip.dev/planner/pkg/timeutil"
)

// SyncWeekdayTemplate copies the shared Monday-to-Friday template into the
// template for dayKey. Inherited entries link back through WeekdayEventID
// and follow the shared entry's value and time; hidden ones stay hidden.
// Entries whose shared entry is gone are dropped. Weekend days inherit
// nothing and are returned sorted.
func (m *Merger) SyncWeekdayTemplate(weekdays, day []entry.RecurringEvent, dayKey string) ([]entry.RecurringEvent, bool, error) {
	if !timeutil.IsWorkday(dayKey) {
		return list.Sorted(day), false, nil
	}

	byLink := make(map[string]entry.RecurringEvent)
	for _, d := range list.Sorted(day) {
		if d.WeekdayEventID == "" {
			continue
		}
		if _, dup := byLink[d.WeekdayEventID]; !dup {
			byLink[d.WeekdayEventID] = d
		}
	}

	var (
		out        []entry.RecurringEvent
		rebalanced bool
	)
	place := func(e entry.RecurringEvent) error {
		next, r, err := list.Reposition(out, e)
		if err != nil {
			return fmt.Errorf("planner: placing %s in %s: %w", e.ID, dayKey, err)
		}
		out, rebalanced = next, rebalanced || r
		return nil
	}

	for _, w := range list.Sorted(weekdays) {
		if !templateActive(w) {
			continue
		}
		existing, ok := byLink[w.ID]
		if ok && (existing.Status == entry.StatusHidden || entry.IsEditing(existing)) {
			if err := place(existing); err != nil {
				return nil, false, err
			}
			continue
		}

		e := entry.RecurringEvent{
			ID:      m.NewID(dayKey, SourceWeekday, w.ID),
			SortKey: w.SortKey,
			Status:  entry.StatusStatic,
		}
		if ok {
			e.ID, e.SortKey, e.Status = existing.ID, existing.SortKey, existing.Status
		}
		e.ListID = dayKey
		e.Value = w.Value
		e.StartTime = w.StartTime
		e.WeekdayEventID = w.ID
		if err := place(e); err != nil {
			return nil, false, err
		}
	}

	for _, d := range list.Sorted(day) {
		if list.Index(out, d.ID) >= 0 {
			continue
		}
		if d.WeekdayEventID != "" && !entry.IsEditing(d) {
			continue
		}
		if err := place(d); err != nil {
			return nil, false, err
		}
	}
	return list.Sorted(out), rebalanced, nil
}
