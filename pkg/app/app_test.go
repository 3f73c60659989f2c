package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tableflip.dev/planner/pkg/calendar"
	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/metrics"
	"tableflip.dev/planner/pkg/planner"
	"tableflip.dev/planner/pkg/store"
)

func newTestService(cal calendar.Source) *Service {
	svc := New(store.NewMemory(), time.UTC)
	if cal != nil {
		svc.Calendar = cal
	}
	n := 0
	var mu sync.Mutex
	svc.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc
}

func lunch(period string) calendar.Static {
	day, _ := time.Parse("2006-01-02", period)
	return calendar.Static{Location: time.UTC, Occurrences: []calendar.Occurrence{
		{ID: "c1", Title: "Lunch", Start: day.Add(12 * time.Hour), End: day.Add(13 * time.Hour)},
	}}
}

// flakyCalendar serves its items once and fails afterwards.
type flakyCalendar struct {
	inner calendar.Source
	calls int
}

func (f *flakyCalendar) FetchEvents(ctx context.Context, period string) ([]entry.CalendarItem, error) {
	f.calls++
	if f.calls > 1 {
		return nil, errors.New("calendar offline")
	}
	return f.inner.FetchEvents(ctx, period)
}

func values(events []entry.PlannerEvent) string {
	var out []string
	for _, e := range events {
		if entry.IsVisible(e) {
			out = append(out, e.Value)
		}
	}
	return strings.Join(out, ",")
}

func TestPlannerMergesSources(t *testing.T) {
	svc := newTestService(lunch("2024-01-01"))
	svc.Metrics = metrics.New()
	ctx := context.Background()

	weekdays := []entry.RecurringEvent{
		{ID: "w1", ListID: store.WeekdaysKey, Value: "Standup", SortKey: 1, Status: entry.StatusStatic, StartTime: "09:00"},
	}
	if err := svc.Persistence.SaveTemplate(ctx, store.WeekdaysKey, weekdays); err != nil {
		t.Fatalf("save template: %v", err)
	}

	res, err := svc.Planner(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	if got := values(res.Events); got != "Standup,Lunch" {
		t.Fatalf("events = %s", got)
	}
	if !res.NeedsPersist || len(res.Added) != 2 {
		t.Fatalf("expected two additions to persist, got %+v", res)
	}
	monday := planner.DerivedID("Monday", planner.SourceWeekday, "w1")
	if res.Events[0].RecurringID != monday {
		t.Fatalf("standup linked to %q, want %q", res.Events[0].RecurringID, monday)
	}
	if res.Events[1].CalendarID != "c1" {
		t.Fatalf("lunch calendar id = %q", res.Events[1].CalendarID)
	}

	again, err := svc.Planner(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("planner again: %v", err)
	}
	if again.NeedsPersist {
		t.Fatalf("second merge should be a no-op, got %+v", again)
	}

	if got := testutil.ToFloat64(svc.Metrics.Merges.WithLabelValues("ok")); got != 2 {
		t.Fatalf("merges = %v", got)
	}
	if got := testutil.ToFloat64(svc.Metrics.Persists); got != 1 {
		t.Fatalf("persists = %v", got)
	}
	if got := testutil.ToFloat64(svc.Metrics.Events.WithLabelValues(string(entry.StatusStatic))); got != 2 {
		t.Fatalf("static events = %v", got)
	}

	if _, err := svc.Planner(ctx, "01/01/2024"); err == nil {
		t.Fatal("expected invalid period error")
	}
}

func TestPlannerConcurrentMergesDoNotDuplicate(t *testing.T) {
	svc := newTestService(lunch("2024-01-06"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Planner(ctx, "2024-01-06"); err != nil {
				t.Errorf("planner: %v", err)
			}
		}()
	}
	wg.Wait()

	events, err := svc.Persistence.Load(ctx, "2024-01-06")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one lunch, got %+v", events)
	}
}

func TestEditingSurface(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	const day = "2024-01-06"

	a, err := svc.Add(ctx, day, "a", "", "")
	if err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := svc.Add(ctx, day, "b", "", ""); err != nil {
		t.Fatalf("add b: %v", err)
	}
	c, err := svc.Add(ctx, day, "c", "", a.ID)
	if err != nil {
		t.Fatalf("add c: %v", err)
	}
	if c.SortKey != 3 {
		t.Fatalf("c key = %v, want 3", c.SortKey)
	}

	res, _ := svc.Planner(ctx, day)
	if got := values(res.Events); got != "a,c,b" {
		t.Fatalf("after adds = %s", got)
	}

	if _, err := svc.Move(ctx, day, "id-2", ""); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := svc.Add(ctx, day, "t", "10:00", ""); err != nil {
		t.Fatalf("add t: %v", err)
	}
	early, err := svc.Add(ctx, day, "early", "8:00", "")
	if err != nil {
		t.Fatalf("add early: %v", err)
	}
	if early.SortKey != 4.5 {
		t.Fatalf("early key = %v, want 4.5", early.SortKey)
	}
	if !early.TimeConfig.Start.Equal(time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("early start = %v", early.TimeConfig.Start)
	}
	res, _ = svc.Planner(ctx, day)
	if got := values(res.Events); got != "b,a,c,early,t" {
		t.Fatalf("after move and timed adds = %s", got)
	}

	edited, err := svc.Edit(ctx, day, a.ID, "A", "")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != a.ID || edited.Status != entry.StatusStatic || edited.SortKey != a.SortKey {
		t.Fatalf("edit should keep identity and place, got %+v", edited)
	}

	pending, err := svc.ToggleDelete(ctx, day, c.ID)
	if err != nil || pending.Status != entry.StatusDelete {
		t.Fatalf("toggle delete: %+v %v", pending, err)
	}
	n, err := svc.ConfirmDeletes(ctx, day)
	if err != nil || n != 1 {
		t.Fatalf("confirm: %d %v", n, err)
	}
	res, _ = svc.Planner(ctx, day)
	if got := values(res.Events); got != "b,A,early,t" {
		t.Fatalf("final = %s", got)
	}
	if len(res.Events) != 4 {
		t.Fatalf("manual item should be removed, got %d events", len(res.Events))
	}

	if _, err := svc.Add(ctx, day, "  ", "", ""); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
	if _, err := svc.Add(ctx, day, "x", "", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Add(ctx, day, "x", "25:99", ""); err == nil {
		t.Fatal("expected bad clock error")
	}
	if _, err := svc.ToggleDelete(ctx, day, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEditDerivedItemDetaches(t *testing.T) {
	const day = "2024-01-06"
	svc := newTestService(lunch(day))
	ctx := context.Background()

	res, err := svc.Planner(ctx, day)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	linked := res.Events[0]

	edited, err := svc.Edit(ctx, day, linked.ID, "Long lunch", "")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID == linked.ID || edited.CalendarID != "" {
		t.Fatalf("expected an unlinked copy, got %+v", edited)
	}

	res, err = svc.Planner(ctx, day)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	if got := values(res.Events); got != "Long lunch" {
		t.Fatalf("visible = %s", got)
	}
	if res.NeedsPersist {
		t.Fatalf("merge after edit should be stable, got %+v", res)
	}
	for _, e := range res.Events {
		if e.ID == linked.ID && e.Status != entry.StatusHidden {
			t.Fatalf("original should stay hidden, got %s", e.Status)
		}
	}

	if _, err := svc.ToggleDelete(ctx, day, linked.ID); !errors.Is(err, entry.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for hidden item, got %v", err)
	}
}

func TestCalendarFailureKeepsStoredItems(t *testing.T) {
	const day = "2024-01-06"
	svc := newTestService(&flakyCalendar{inner: lunch(day)})
	ctx := context.Background()

	if _, err := svc.Planner(ctx, day); err != nil {
		t.Fatalf("planner: %v", err)
	}
	res, err := svc.Planner(ctx, day)
	if err != nil {
		t.Fatalf("planner with calendar offline: %v", err)
	}
	if got := values(res.Events); got != "Lunch" || res.NeedsPersist {
		t.Fatalf("expected stored lunch unchanged, got %s %+v", got, res)
	}
}

func TestRollover(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	ten := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	past := []entry.PlannerEvent{
		{ID: "x", ListID: "2024-01-01", Value: "write report", SortKey: 1, Status: entry.StatusStatic},
		{ID: "y", ListID: "2024-01-01", Value: "call", SortKey: 2, Status: entry.StatusStatic,
			TimeConfig: &entry.TimeConfig{Start: entry.At(ten), End: entry.At(ten.Add(time.Hour))}},
		{ID: "cal", ListID: "2024-01-01", Value: "meeting", SortKey: 3, Status: entry.StatusStatic, CalendarID: "gone"},
		{ID: "hid", ListID: "2024-01-01", Value: "gym", SortKey: 4, Status: entry.StatusHidden, RecurringID: "r"},
	}
	if err := svc.Persistence.Save(ctx, "2024-01-01", past); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := svc.Rollover(ctx, "2024-01-02")
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if res.From != "2024-01-01" || strings.Join(res.Carried, ",") != "cal,y,x" {
		t.Fatalf("unexpected rollover %+v", res)
	}
	today, _ := svc.Persistence.Load(ctx, "2024-01-02")
	if got := values(today); got != "write report,call,meeting" {
		t.Fatalf("today = %s", got)
	}
	if today[2].CalendarID != "" {
		t.Fatalf("carried meeting still linked to %q", today[2].CalendarID)
	}
	if want := ten.AddDate(0, 0, 1); !today[1].TimeConfig.Start.Equal(want) {
		t.Fatalf("call start = %v, want %v", today[1].TimeConfig.Start, want)
	}

	again, err := svc.Rollover(ctx, "2024-01-02")
	if err != nil || !again.Skipped {
		t.Fatalf("expected second rollover to be skipped, got %+v %v", again, err)
	}

	svc.Keep = 24 * time.Hour
	later, err := svc.Rollover(ctx, "2024-01-05")
	if err != nil {
		t.Fatalf("rollover later: %v", err)
	}
	if later.From != "2024-01-02" || strings.Join(later.Pruned, ",") != "2024-01-01,2024-01-02" {
		t.Fatalf("unexpected later rollover %+v", later)
	}
	periods, _ := svc.Periods(ctx)
	if strings.Join(periods, ",") != "2024-01-05" {
		t.Fatalf("periods = %v", periods)
	}

	// Three days after the last stored period, times land on the new day.
	fifth, _ := svc.Persistence.Load(ctx, "2024-01-05")
	if got := values(fifth); got != "write report,call,meeting" {
		t.Fatalf("2024-01-05 = %s", got)
	}
	want := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	if !fifth[1].TimeConfig.Start.Equal(want) || !fifth[1].TimeConfig.End.Equal(want.Add(time.Hour)) {
		t.Fatalf("call on 2024-01-05 = %v-%v, want %v", fifth[1].TimeConfig.Start, fifth[1].TimeConfig.End, want)
	}
}

func TestRolloverAfterGap(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "2024-01-01", "Call bank", "10:00", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Rollover(ctx, "2024-01-04"); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	res, err := svc.Planner(ctx, "2024-01-04")
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected the carried item, got %+v", res.Events)
	}
	carried := res.Events[0]
	if carried.ListID != "2024-01-04" || !carried.TimeConfig.Start.SameDay(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("carried item lives in %s but starts %s", carried.ListID, carried.TimeConfig.Start)
	}
}

func TestTemplates(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	standup, err := svc.TemplateAdd(ctx, store.WeekdaysKey, "Standup", "9:00", "")
	if err != nil {
		t.Fatalf("template add: %v", err)
	}
	if standup.StartTime != "09:00" {
		t.Fatalf("start time = %q", standup.StartTime)
	}

	monday, err := svc.TemplateList(ctx, "Monday")
	if err != nil {
		t.Fatalf("list monday: %v", err)
	}
	if len(monday) != 1 || monday[0].WeekdayEventID != standup.ID || !monday[0].Derived() {
		t.Fatalf("monday = %+v", monday)
	}
	if err := svc.TemplateDelete(ctx, "Monday", monday[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	monday, _ = svc.TemplateList(ctx, "Monday")
	if len(monday) != 1 || monday[0].Status != entry.StatusHidden {
		t.Fatalf("inherited entry should be hidden, got %+v", monday)
	}

	res, err := svc.Planner(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("planner monday: %v", err)
	}
	if len(res.Events) != 0 {
		t.Fatalf("monday should have no standup, got %+v", res.Events)
	}
	res, err = svc.Planner(ctx, "2024-01-02")
	if err != nil {
		t.Fatalf("planner tuesday: %v", err)
	}
	if got := values(res.Events); got != "Standup" {
		t.Fatalf("tuesday = %s", got)
	}

	if _, err := svc.TemplateAdd(ctx, "Someday", "x", "", ""); !errors.Is(err, store.ErrUnknownDay) {
		t.Fatalf("expected ErrUnknownDay, got %v", err)
	}

	var buf bytes.Buffer
	if err := svc.TemplateExport(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), "Weekdays:") || !strings.Contains(buf.String(), "id: "+standup.ID) {
		t.Fatalf("export missing weekday template:\n%s", buf.String())
	}

	other := newTestService(nil)
	days, err := other.TemplateImport(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if strings.Join(days, ",") != "Weekdays,Monday,Tuesday" {
		t.Fatalf("imported days = %v", days)
	}
	imported, _ := other.TemplateList(ctx, "Monday")
	if len(imported) != 1 || imported[0].Status != entry.StatusHidden {
		t.Fatalf("imported monday = %+v", imported)
	}
}

func TestReport(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	tc := &entry.TimeConfig{Start: entry.At(at), End: entry.At(at.Add(time.Hour))}
	events := []entry.PlannerEvent{
		{ID: "m", Value: "manual", SortKey: 1, Status: entry.StatusStatic},
		{ID: "t", Value: "timed", SortKey: 2, Status: entry.StatusStatic, TimeConfig: tc},
		{ID: "c", Value: "calendar", SortKey: 3, Status: entry.StatusStatic, TimeConfig: tc, CalendarID: "c"},
		{ID: "r", Value: "template", SortKey: 4, Status: entry.StatusStatic, RecurringID: "r"},
		{ID: "h", Value: "hidden", SortKey: 5, Status: entry.StatusHidden, RecurringID: "h"},
	}
	if err := svc.Persistence.Save(ctx, "2024-02-01", events); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Persistence.Save(ctx, "2024-03-01", events); err != nil {
		t.Fatalf("save: %v", err)
	}

	rep, err := svc.Report(ctx, "2024-02-28", "2024-01-31")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Since != "2024-01-31" || len(rep.Sections) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	sec := rep.Sections[0]
	if sec.Total != 4 || sec.Timed != 2 || sec.Calendar != 1 || sec.Template != 1 {
		t.Fatalf("section = %+v", sec)
	}
	if len(sec.Open) != 1 || sec.Open[0].ID != "m" {
		t.Fatalf("open = %+v", sec.Open)
	}
	if sec.ByStatus[entry.StatusHidden] != 1 || sec.ByStatus[entry.StatusStatic] != 4 {
		t.Fatalf("by status = %v", sec.ByStatus)
	}
}
