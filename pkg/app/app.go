package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/planner/pkg/calendar"
	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
	"tableflip.dev/planner/pkg/log"
	"tableflip.dev/planner/pkg/metrics"
	"tableflip.dev/planner/pkg/planner"
	"tableflip.dev/planner/pkg/sortkey"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/timeutil"
)

// Service provides high-level planner operations. It wraps persistence, the
// calendar and the merger so the CLI and the MCP server share one path.
type Service struct {
	Persistence store.Persistence
	Calendar    calendar.Source
	Merger      *planner.Merger
	Metrics     *metrics.Metrics
	// Keep is the retention window applied at rollover. Zero keeps
	// everything.
	Keep     time.Duration
	Location *time.Location
	NewID    func() string

	periods keyedMutex
}

var (
	ErrNoPersistence = errors.New("app: no persistence configured")
	ErrNotFound      = errors.New("app: item not found")
	ErrEmptyValue    = errors.New("app: value required")
)

// New returns a Service with the default merger, no calendar and no
// metrics.
func New(p store.Persistence, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		Persistence: p,
		Calendar:    calendar.Empty{},
		Merger:      planner.New(loc),
		Location:    loc,
		NewID:       planner.NewID,
	}
}

func (s *Service) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return planner.NewID()
	}
	return s.NewID()
}

func (s *Service) merger() *planner.Merger {
	if s.Merger == nil {
		s.Merger = planner.New(s.loc())
	}
	return s.Merger
}

// Today returns the current period in the service's location.
func (s *Service) Today() string {
	return timeutil.Datestamp(time.Now().In(s.loc()))
}

// Watch subscribes to persistence change events.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	return s.Persistence.Watch(ctx)
}

// Periods lists stored periods, oldest first.
func (s *Service) Periods(ctx context.Context) ([]string, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	return s.Persistence.Periods(ctx)
}

// Planner merges the stored list for period with its weekday template and
// the calendar, saving the result when it changed.
func (s *Service) Planner(ctx context.Context, period string) (planner.Result, error) {
	if s.Persistence == nil {
		return planner.Result{}, ErrNoPersistence
	}
	unlock := s.periods.lock(period)
	defer unlock()
	return s.build(ctx, period)
}

// build must be called with the period lock held.
func (s *Service) build(ctx context.Context, period string) (planner.Result, error) {
	res, err := s.merge(ctx, period)
	if s.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.Metrics.Merges.WithLabelValues(outcome).Inc()
	}
	return res, err
}

func (s *Service) merge(ctx context.Context, period string) (planner.Result, error) {
	if _, err := timeutil.ParseDatestamp(period, s.loc()); err != nil {
		return planner.Result{}, err
	}
	persisted, err := s.Persistence.Load(ctx, period)
	if err != nil {
		return planner.Result{}, fmt.Errorf("app: load %s: %w", period, err)
	}
	template, err := s.periodTemplate(ctx, period)
	if err != nil {
		return planner.Result{}, err
	}
	cal, err := s.calendarItems(ctx, period, persisted)
	if err != nil {
		return planner.Result{}, err
	}

	res, err := s.merger().BuildPeriodEvents(period, persisted, template, cal)
	if err != nil {
		return planner.Result{}, err
	}
	if res.NeedsPersist {
		if err := s.Persistence.Save(ctx, period, res.Events); err != nil {
			return planner.Result{}, fmt.Errorf("app: save %s: %w", period, err)
		}
		log.Debug("planner saved", "period", period, "added", len(res.Added), "removed", len(res.Removed), "changed", len(res.Changed))
	}
	s.observe(res)
	return res, nil
}

// calendarItems fetches the calendar for period. When the calendar cannot be
// read the linked items already stored are replayed so they survive the
// merge unchanged.
func (s *Service) calendarItems(ctx context.Context, period string, persisted []entry.PlannerEvent) ([]entry.CalendarItem, error) {
	if s.Calendar == nil {
		return nil, nil
	}
	items, err := s.Calendar.FetchEvents(ctx, period)
	if err == nil {
		return items, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Error("calendar unavailable, keeping stored calendar items", err, "period", period)
	var replay []entry.CalendarItem
	for _, e := range persisted {
		if e.CalendarID == "" || e.TimeConfig == nil {
			continue
		}
		replay = append(replay, entry.CalendarItem{
			ExternalID:    e.CalendarID,
			Title:         e.Value,
			Start:         e.TimeConfig.Start,
			End:           e.TimeConfig.End,
			AllDay:        e.TimeConfig.AllDay,
			MultiDayStart: e.TimeConfig.MultiDayStart,
			MultiDayEnd:   e.TimeConfig.MultiDayEnd,
		})
	}
	return replay, nil
}

func (s *Service) observe(res planner.Result) {
	if s.Metrics == nil {
		return
	}
	if res.NeedsPersist {
		s.Metrics.Persists.Inc()
	}
	if res.Rebalanced {
		s.Metrics.Rebalances.Inc()
	}
	s.Metrics.Ambiguous.Add(float64(len(res.Ambiguous)))
	counts := make(map[entry.Status]int)
	for _, e := range res.Events {
		counts[e.Status]++
	}
	for _, st := range entry.AllStatuses() {
		s.Metrics.Events.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
}

// update merges period, applies fn to the merged list and saves what fn
// returns.
func (s *Service) update(ctx context.Context, period string, fn func([]entry.PlannerEvent) ([]entry.PlannerEvent, error)) error {
	if s.Persistence == nil {
		return ErrNoPersistence
	}
	unlock := s.periods.lock(period)
	defer unlock()

	res, err := s.build(ctx, period)
	if err != nil {
		return err
	}
	events, err := fn(res.Events)
	if err != nil {
		return err
	}
	return s.Persistence.Save(ctx, period, events)
}

// Add creates an item in period. With a clock the item is timed and placed
// chronologically; otherwise it lands after afterID, or at the end of the
// list when afterID is empty.
func (s *Service) Add(ctx context.Context, period, value, clock, afterID string) (entry.PlannerEvent, error) {
	ev := entry.PlannerEvent{
		ID:     s.newID(),
		ListID: period,
		Value:  strings.TrimSpace(value),
		Status: entry.StatusNew,
	}
	out, err := entry.Next(ev.Status, entry.ActionCommit, ev.Subject())
	if err != nil {
		return ev, err
	}
	if out.Remove {
		return ev, ErrEmptyValue
	}
	ev.Status = out.Status

	if clock != "" {
		tc, err := s.timeConfig(period, clock)
		if err != nil {
			return ev, err
		}
		ev.TimeConfig = tc
	}

	err = s.update(ctx, period, func(items []entry.PlannerEvent) ([]entry.PlannerEvent, error) {
		items, key, err := keyAfter(items, "", afterID, true)
		if err != nil {
			return nil, err
		}
		ev.SortKey = key
		next, _, err := list.Reposition(items, ev)
		if err != nil {
			return nil, err
		}
		ev = next[list.Index(next, ev.ID)]
		return next, nil
	})
	return ev, err
}

// ClearTime passed as the clock to Edit removes an item's time.
const ClearTime = "-"

// Edit changes an item's value and, when clock is set, its time. Editing an
// item owned by the calendar or the template hides it and puts an unlinked
// copy in its place so the source cannot overwrite the edit.
func (s *Service) Edit(ctx context.Context, period, id, value, clock string) (entry.PlannerEvent, error) {
	var result entry.PlannerEvent
	err := s.update(ctx, period, func(items []entry.PlannerEvent) ([]entry.PlannerEvent, error) {
		i := list.Index(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		orig := items[i]
		out, err := entry.Next(orig.Status, entry.ActionBeginEdit, orig.Subject())
		if err != nil {
			return nil, err
		}

		edited := orig.Clone()
		edited.Status = out.Status
		if v := strings.TrimSpace(value); v != "" {
			edited.Value = v
		}
		switch clock {
		case "":
		case ClearTime:
			edited.TimeConfig = nil
		default:
			tc, err := s.timeConfig(period, clock)
			if err != nil {
				return nil, err
			}
			edited.TimeConfig = tc
		}

		out, err = entry.Next(edited.Status, entry.ActionCommit, edited.Subject())
		if err != nil {
			return nil, err
		}
		if out.Remove {
			return nil, ErrEmptyValue
		}
		edited.Status = out.Status

		if orig.Derived() {
			hidden := orig.Clone()
			hidden.Status = entry.StatusHidden
			items = list.Sanitize(items, hidden, "")
			edited.ID = s.newID()
			edited.CalendarID = ""
			edited.RecurringID = ""
		}

		next, _, err := list.Reposition(items, edited)
		if err != nil {
			return nil, err
		}
		result = next[list.Index(next, edited.ID)]
		return next, nil
	})
	return result, err
}

// Move places an item after afterID, or at the top of the list when afterID
// is empty. Timed items stay in chronological order, so a move that would
// break it is undone by the placement.
func (s *Service) Move(ctx context.Context, period, id, afterID string) (entry.PlannerEvent, error) {
	var result entry.PlannerEvent
	err := s.update(ctx, period, func(items []entry.PlannerEvent) ([]entry.PlannerEvent, error) {
		i := list.Index(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if afterID == id {
			result = items[i]
			return items, nil
		}
		items, key, err := keyAfter(items, id, afterID, false)
		if err != nil {
			return nil, err
		}
		moved := items[list.Index(items, id)].WithKey(key)
		next, _, err := list.Reposition(items, moved)
		if err != nil {
			return nil, err
		}
		result = next[list.Index(next, id)]
		return next, nil
	})
	return result, err
}

// ToggleDelete flips an item in or out of pending delete.
func (s *Service) ToggleDelete(ctx context.Context, period, id string) (entry.PlannerEvent, error) {
	var result entry.PlannerEvent
	err := s.update(ctx, period, func(items []entry.PlannerEvent) ([]entry.PlannerEvent, error) {
		i := list.Index(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		out, err := entry.Next(items[i].Status, entry.ActionToggleDelete, items[i].Subject())
		if err != nil {
			return nil, err
		}
		result = items[i].Clone()
		result.Status = out.Status
		return list.Sanitize(items, result, ""), nil
	})
	return result, err
}

// ConfirmDeletes resolves every pending delete in period. Derived items are
// hidden so their source does not bring them back; the rest are removed. It
// returns how many items were resolved.
func (s *Service) ConfirmDeletes(ctx context.Context, period string) (int, error) {
	n := 0
	err := s.update(ctx, period, func(items []entry.PlannerEvent) ([]entry.PlannerEvent, error) {
		out := make([]entry.PlannerEvent, 0, len(items))
		for _, e := range items {
			if !entry.IsPendingDelete(e) {
				out = append(out, e)
				continue
			}
			res, err := entry.Next(e.Status, entry.ActionConfirmDelete, e.Subject())
			if err != nil {
				return nil, err
			}
			n++
			if res.Remove {
				continue
			}
			e = e.Clone()
			e.Status = res.Status
			out = append(out, e)
		}
		return out, nil
	})
	return n, err
}

func (s *Service) timeConfig(period, clock string) (*entry.TimeConfig, error) {
	hhmm, err := timeutil.ParseClock(clock)
	if err != nil {
		return nil, err
	}
	start, err := timeutil.ClockOn(period, hhmm, s.loc())
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Hour)
	if _, dayEnd, err := timeutil.DayBounds(period, s.loc()); err == nil && end.After(dayEnd) {
		end = dayEnd.Truncate(time.Minute)
	}
	return &entry.TimeConfig{Start: entry.At(start), End: entry.At(end)}, nil
}

// keyAfter returns a key just after afterID, ignoring the item skipID. An
// empty afterID means the end of the list when atEnd is set and the top
// otherwise. When there is no room the list is renumbered first and
// returned in its new form.
func keyAfter[T list.Sortable[T]](items []T, skipID, afterID string, atEnd bool) ([]T, float64, error) {
	for attempt := 0; ; attempt++ {
		parent := sortkey.Top
		found := afterID == ""
		keys := make([]float64, 0, len(items))
		for _, it := range items {
			if it.Identity() == skipID {
				continue
			}
			keys = append(keys, it.Key())
			if it.Identity() == afterID {
				parent, found = it.Key(), true
			}
		}
		if !found {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, afterID)
		}
		key, err := sortkey.Generate(parent, keys, afterID == "" && atEnd)
		if errors.Is(err, sortkey.ErrKeySpaceExhausted) && attempt == 0 {
			items = list.Rebalance(items)
			continue
		}
		return items, key, err
	}
}
