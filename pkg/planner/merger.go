// Package planner builds a day's planner from the stored list, the weekday
// template and the calendar, and carries unfinished items into the next day.
package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
	"tableflip.dev/planner/pkg/log"
	"tableflip.dev/planner/pkg/sortkey"
	"tableflip.dev/planner/pkg/timeutil"
)

// TemplateEndClock is the end time given to events derived from a timed
// template entry.
const TemplateEndClock = "23:55"

// Merger reconciles a period's sources. The zero value is not usable; call
// New.
type Merger struct {
	// NewID names the item a source link materializes as in a period.
	NewID func(period, source, ref string) string
	// Location places template clock times on the period's day.
	Location *time.Location
}

// New returns a Merger with deterministic identities in loc.
func New(loc *time.Location) *Merger {
	if loc == nil {
		loc = time.Local
	}
	return &Merger{NewID: DerivedID, Location: loc}
}

// Result is the outcome of BuildPeriodEvents.
type Result struct {
	Events []entry.PlannerEvent
	// NeedsPersist is set when Events differs from the stored list.
	NeedsPersist bool
	Added        []string
	Removed      []string
	Changed      []string
	// Ambiguous lists items linked to both the calendar and the template.
	Ambiguous  []string
	Rebalanced bool
}

// BuildPeriodEvents merges the template and then the calendar into the
// stored list for period. The calendar wins for items linked to both.
func (m *Merger) BuildPeriodEvents(period string, persisted []entry.PlannerEvent, template []entry.RecurringEvent, calendar []entry.CalendarItem) (Result, error) {
	events, r1, err := m.SyncWithTemplate(template, persisted, period)
	if err != nil {
		return Result{}, err
	}
	events, r2, err := m.SyncWithCalendar(calendar, events, period)
	if err != nil {
		return Result{}, err
	}

	res := Result{Events: list.Sorted(events), Rebalanced: r1 || r2}
	for _, e := range res.Events {
		if e.CalendarID != "" && e.RecurringID != "" {
			res.Ambiguous = append(res.Ambiguous, e.ID)
			log.Warn("planner item linked to calendar and template", "period", period, "id", e.ID, "calendar", e.CalendarID, "template", e.RecurringID)
		}
	}
	res.Added, res.Removed, res.Changed = diff(persisted, res.Events)
	res.NeedsPersist = len(res.Added)+len(res.Removed)+len(res.Changed) > 0
	return res, nil
}

// SyncWithTemplate applies a weekday template to the stored list. Each
// template entry yields one linked item carrying the template's value and
// time; hidden links stay hidden. Unlinked items are kept, and items linked
// to entries the template no longer has are dropped. Items being edited are
// never touched, and calendar-linked items are left for the calendar.
func (m *Merger) SyncWithTemplate(template []entry.RecurringEvent, persisted []entry.PlannerEvent, period string) ([]entry.PlannerEvent, bool, error) {
	if _, err := timeutil.ParseDatestamp(period, m.Location); err != nil {
		return nil, false, err
	}

	byLink := make(map[string]entry.PlannerEvent)
	for _, p := range list.Sorted(persisted) {
		if p.RecurringID == "" {
			continue
		}
		if _, dup := byLink[p.RecurringID]; !dup {
			byLink[p.RecurringID] = p
		}
	}

	var (
		out        []entry.PlannerEvent
		rebalanced bool
	)
	place := func(e entry.PlannerEvent) error {
		next, r, err := list.Reposition(out, e)
		if err != nil {
			return fmt.Errorf("planner: placing %s: %w", e.ID, err)
		}
		out, rebalanced = next, rebalanced || r
		return nil
	}

	for _, rec := range list.Sorted(template) {
		if !templateActive(rec) {
			continue
		}

		linked, ok := byLink[rec.ID]
		if ok && (linked.Status == entry.StatusHidden || entry.IsEditing(linked) || linked.CalendarID != "") {
			if err := place(linked); err != nil {
				return nil, false, err
			}
			continue
		}

		e := entry.PlannerEvent{
			ID:          m.NewID(period, SourceTemplate, rec.ID),
			SortKey:     rec.SortKey,
			Status:      entry.StatusStatic,
			RecurringID: rec.ID,
		}
		if ok {
			e = linked.Clone()
		}
		e.ListID = period
		e.Value = rec.Value
		e.TimeConfig = m.templateTime(period, rec)
		if err := place(e); err != nil {
			return nil, false, err
		}
	}

	for _, p := range list.Sorted(persisted) {
		if list.Index(out, p.ID) >= 0 {
			continue
		}
		if p.RecurringID != "" && p.CalendarID == "" && !entry.IsEditing(p) {
			// Either the template dropped the entry or another item already
			// carries the link.
			continue
		}
		if err := place(p); err != nil {
			return nil, false, err
		}
	}
	return list.Sorted(out), rebalanced, nil
}

// SyncWithCalendar applies a calendar snapshot. Linked items take the
// calendar's title and time, or are dropped when the calendar no longer has
// them. Hidden and in-edit items are kept as they are. Calendar events with
// no linked item are added at the top and placed by time. The list is then
// normalized so timed items are in order.
func (m *Merger) SyncWithCalendar(calendar []entry.CalendarItem, persisted []entry.PlannerEvent, period string) ([]entry.PlannerEvent, bool, error) {
	byID := make(map[string]entry.CalendarItem, len(calendar))
	for _, c := range calendar {
		if _, dup := byID[c.ExternalID]; !dup {
			byID[c.ExternalID] = c
		}
	}

	var (
		out        []entry.PlannerEvent
		rebalanced bool
	)
	place := func(e entry.PlannerEvent) error {
		next, r, err := list.Reposition(out, e)
		if err != nil {
			return fmt.Errorf("planner: placing %s: %w", e.ID, err)
		}
		out, rebalanced = next, rebalanced || r
		return nil
	}

	for _, p := range list.Sorted(persisted) {
		if p.CalendarID == "" || p.Status == entry.StatusHidden || entry.IsEditing(p) {
			out = append(out, p)
			continue
		}
		c, ok := byID[p.CalendarID]
		if !ok {
			continue
		}
		e := p.Clone()
		e.ListID = period
		e.Value = c.Title
		e.TimeConfig = c.TimeConfig()
		if err := place(e); err != nil {
			return nil, false, err
		}
	}

	for _, c := range calendar {
		if hasCalendarLink(out, c.ExternalID) {
			continue
		}
		e := entry.PlannerEvent{
			ID:         m.NewID(period, SourceCalendar, c.ExternalID),
			ListID:     period,
			Value:      c.Title,
			SortKey:    sortkey.Top,
			Status:     entry.StatusStatic,
			TimeConfig: c.TimeConfig(),
			CalendarID: c.ExternalID,
		}
		if err := place(e); err != nil {
			return nil, false, err
		}
	}

	normalized, r, err := list.Normalize(out)
	if err != nil {
		return nil, false, fmt.Errorf("planner: normalizing %s: %w", period, err)
	}
	return normalized, rebalanced || r, nil
}

func (m *Merger) templateTime(period string, rec entry.RecurringEvent) *entry.TimeConfig {
	if rec.StartTime == "" {
		return nil
	}
	start, err := timeutil.ClockOn(period, rec.StartTime, m.Location)
	if err != nil {
		log.Warn("ignoring template time", "template", rec.ID, "time", rec.StartTime, "err", err)
		return nil
	}
	end, _ := timeutil.ClockOn(period, TemplateEndClock, m.Location)
	return &entry.TimeConfig{Start: entry.At(start), End: entry.At(end)}
}

// templateActive reports whether a template entry should produce an item.
func templateActive(rec entry.RecurringEvent) bool {
	if rec.Status == entry.StatusHidden {
		return false
	}
	return !(entry.IsEditing(rec) && rec.Empty())
}

func hasCalendarLink(items []entry.PlannerEvent, calendarID string) bool {
	for _, it := range items {
		if it.CalendarID == calendarID {
			return true
		}
	}
	return false
}

func diff(before, after []entry.PlannerEvent) (added, removed, changed []string) {
	old := make(map[string][]byte, len(before))
	for _, e := range before {
		old[e.ID] = encode(e)
	}
	seen := make(map[string]bool, len(after))
	for _, e := range after {
		seen[e.ID] = true
		prev, ok := old[e.ID]
		switch {
		case !ok:
			added = append(added, e.ID)
		case !bytes.Equal(prev, encode(e)):
			changed = append(changed, e.ID)
		}
	}
	for _, e := range before {
		if !seen[e.ID] {
			removed = append(removed, e.ID)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed
}

func encode(e entry.PlannerEvent) []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return []byte(e.ID)
	}
	return b
}
