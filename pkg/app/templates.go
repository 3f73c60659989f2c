package app

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/timeutil"
)

// periodTemplate returns the day-of-week template that applies to period.
func (s *Service) periodTemplate(ctx context.Context, period string) ([]entry.RecurringEvent, error) {
	day, err := timeutil.DayKey(period)
	if err != nil {
		return nil, err
	}
	return s.dayTemplate(ctx, day)
}

// dayTemplate loads a day's template with the shared weekday entries folded
// in. The folded form is written back when it changed so inherited entries
// keep their identity.
func (s *Service) dayTemplate(ctx context.Context, day string) ([]entry.RecurringEvent, error) {
	own, err := s.Persistence.LoadTemplate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("app: load template %s: %w", day, err)
	}
	if day == store.WeekdaysKey {
		return own, nil
	}
	weekdays, err := s.Persistence.LoadTemplate(ctx, store.WeekdaysKey)
	if err != nil {
		return nil, fmt.Errorf("app: load template %s: %w", store.WeekdaysKey, err)
	}
	synced, _, err := s.merger().SyncWeekdayTemplate(weekdays, own, day)
	if err != nil {
		return nil, err
	}
	if len(own) != len(synced) || !reflect.DeepEqual(list.Sorted(own), synced) {
		if err := s.Persistence.SaveTemplate(ctx, day, synced); err != nil {
			return nil, fmt.Errorf("app: save template %s: %w", day, err)
		}
	}
	return synced, nil
}

func validDay(day string) error {
	if !store.ValidDay(day) {
		return fmt.Errorf("%w: %q", store.ErrUnknownDay, day)
	}
	return nil
}

// TemplateList returns the entries of a day's template, including those it
// inherits from the weekday template.
func (s *Service) TemplateList(ctx context.Context, day string) ([]entry.RecurringEvent, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	if err := validDay(day); err != nil {
		return nil, err
	}
	return s.dayTemplate(ctx, day)
}

// TemplateAdd adds an entry to a day's template, after afterID or at the
// end. Timed entries are kept in clock order.
func (s *Service) TemplateAdd(ctx context.Context, day, value, clock, afterID string) (entry.RecurringEvent, error) {
	ev := entry.RecurringEvent{ID: s.newID(), ListID: day, Value: strings.TrimSpace(value), Status: entry.StatusStatic}
	if s.Persistence == nil {
		return ev, ErrNoPersistence
	}
	if err := validDay(day); err != nil {
		return ev, err
	}
	if ev.Empty() {
		return ev, ErrEmptyValue
	}
	if clock != "" {
		hhmm, err := timeutil.ParseClock(clock)
		if err != nil {
			return ev, err
		}
		ev.StartTime = hhmm
	}

	items, err := s.dayTemplate(ctx, day)
	if err != nil {
		return ev, err
	}
	items, key, err := keyAfter(items, "", afterID, true)
	if err != nil {
		return ev, err
	}
	ev.SortKey = key
	next, _, err := list.Reposition(items, ev)
	if err != nil {
		return ev, err
	}
	if err := s.Persistence.SaveTemplate(ctx, day, next); err != nil {
		return ev, err
	}
	return next[list.Index(next, ev.ID)], nil
}

// TemplateDelete removes an entry from a day's template. Entries inherited
// from the weekday template are hidden instead so they stay suppressed.
func (s *Service) TemplateDelete(ctx context.Context, day, id string) error {
	if s.Persistence == nil {
		return ErrNoPersistence
	}
	if err := validDay(day); err != nil {
		return err
	}
	items, err := s.dayTemplate(ctx, day)
	if err != nil {
		return err
	}
	i := list.Index(items, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if items[i].Derived() {
		hidden := items[i]
		hidden.Status = entry.StatusHidden
		items = list.Sanitize(items, hidden, "")
	} else {
		items = append(items[:i:i], items[i+1:]...)
	}
	return s.Persistence.SaveTemplate(ctx, day, items)
}

// TemplateImport stores every template in a YAML template file and returns
// the days it wrote.
func (s *Service) TemplateImport(ctx context.Context, r io.Reader) ([]string, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	templates, err := store.DecodeTemplates(r, s.newID)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, len(templates))
	// Weekdays first so day templates fold in the new shared entries.
	if events, ok := templates[store.WeekdaysKey]; ok {
		if err := s.Persistence.SaveTemplate(ctx, store.WeekdaysKey, events); err != nil {
			return nil, err
		}
		days = append(days, store.WeekdaysKey)
	}
	rest := make([]string, 0, len(templates))
	for day := range templates {
		if day != store.WeekdaysKey {
			rest = append(rest, day)
		}
	}
	sort.Strings(rest)
	for _, day := range rest {
		if err := s.Persistence.SaveTemplate(ctx, day, templates[day]); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// TemplateExport writes every stored template as YAML.
func (s *Service) TemplateExport(ctx context.Context, w io.Writer) error {
	if s.Persistence == nil {
		return ErrNoPersistence
	}
	days, err := s.Persistence.Templates(ctx)
	if err != nil {
		return err
	}
	all := make(map[string][]entry.RecurringEvent, len(days))
	for _, day := range days {
		events, err := s.Persistence.LoadTemplate(ctx, day)
		if err != nil {
			return err
		}
		all[day] = events
	}
	return store.EncodeTemplates(w, all)
}
