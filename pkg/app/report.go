package app

import (
	"context"
	"fmt"

	"tableflip.dev/planner/pkg/entry"
)

// ReportSection summarizes one stored period.
type ReportSection struct {
	Period   string
	Total    int
	Timed    int
	Calendar int
	Template int
	ByStatus map[entry.Status]int
	// Open lists visible items that are neither timed nor derived: the work
	// that rollover would carry forward.
	Open []entry.PlannerEvent
}

// ReportResult summarizes the stored periods in a range.
type ReportResult struct {
	Since    string
	Until    string
	Sections []ReportSection
	Total    int
}

// Report summarizes stored periods from since to until, inclusive. Periods
// are read as stored and are not merged.
func (s *Service) Report(ctx context.Context, since, until string) (ReportResult, error) {
	if since > until {
		since, until = until, since
	}
	res := ReportResult{Since: since, Until: until}
	periods, err := s.Periods(ctx)
	if err != nil {
		return res, err
	}
	for _, p := range periods {
		if p < since || p > until {
			continue
		}
		events, err := s.Persistence.Load(ctx, p)
		if err != nil {
			return res, fmt.Errorf("app: load %s: %w", p, err)
		}
		sec := summarize(p, events)
		res.Total += sec.Total
		res.Sections = append(res.Sections, sec)
	}
	return res, nil
}

func summarize(period string, events []entry.PlannerEvent) ReportSection {
	sec := ReportSection{Period: period, ByStatus: make(map[entry.Status]int)}
	for _, e := range events {
		sec.ByStatus[e.Status]++
		if !entry.IsVisible(e) {
			continue
		}
		sec.Total++
		if _, ok := e.Time(); ok {
			sec.Timed++
		}
		switch {
		case e.CalendarID != "":
			sec.Calendar++
		case e.RecurringID != "":
			sec.Template++
		default:
			if _, ok := e.Time(); !ok {
				sec.Open = append(sec.Open, e)
			}
		}
	}
	return sec
}
