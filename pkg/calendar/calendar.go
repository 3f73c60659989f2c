// Package calendar supplies the external calendar snapshot merged into each
// planner period.
package calendar

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/timeutil"
)

// Source returns the calendar items that belong on a period's planner.
type Source interface {
	FetchEvents(ctx context.Context, period string) ([]entry.CalendarItem, error)
}

// Occurrence is one concrete instance of a calendar event.
type Occurrence struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
}

// PlannerItems keeps the occurrences that start or end on period and are not
// all-day, marking those that cross midnight. The result is ordered by start
// then id.
func PlannerItems(occs []Occurrence, period string, loc *time.Location) ([]entry.CalendarItem, error) {
	dayStart, _, err := timeutil.DayBounds(period, loc)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	out := make([]entry.CalendarItem, 0, len(occs))
	for _, o := range occs {
		if o.AllDay || o.End.IsZero() {
			continue
		}
		startsToday := !o.Start.Before(dayStart) && o.Start.Before(dayEnd)
		endsToday := !o.End.Before(dayStart) && o.End.Before(dayEnd)
		if !startsToday && !endsToday {
			continue
		}
		startDay := timeutil.Datestamp(o.Start.In(loc))
		endDay := timeutil.Datestamp(o.End.In(loc))
		out = append(out, entry.CalendarItem{
			ExternalID:    o.ID,
			Title:         o.Title,
			Start:         entry.At(o.Start),
			End:           entry.At(o.End),
			MultiDayStart: startDay == period && endDay > period,
			MultiDayEnd:   startDay < period && endDay == period,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start.Time) {
			return out[i].Start.Before(out[j].Start.Time)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

// Static serves a fixed set of occurrences.
type Static struct {
	Occurrences []Occurrence
	Location    *time.Location
}

func (s Static) FetchEvents(_ context.Context, period string) ([]entry.CalendarItem, error) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return PlannerItems(s.Occurrences, period, loc)
}

// Empty is a Source with no events.
type Empty struct{}

func (Empty) FetchEvents(context.Context, string) ([]entry.CalendarItem, error) {
	return []entry.CalendarItem{}, nil
}
