package planner

import (
	"testing"
	"time"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
)

func TestSyncWeekdayTemplate(t *testing.T) {
	m := New(time.UTC)
	weekdays := []entry.RecurringEvent{
		rec("w1", "Gym", "07:00", 1),
		rec("w2", "Lunch walk", "", 2),
		rec("w3", "Retro", "16:00", 3),
	}
	hidden := entry.RecurringEvent{ID: "h", ListID: "Monday", Value: "Lunch walk", SortKey: 3, Status: entry.StatusHidden, WeekdayEventID: "w2"}
	stale := entry.RecurringEvent{ID: "old", ListID: "Monday", Value: "Old", SortKey: 4, Status: entry.StatusStatic, WeekdayEventID: "gone"}
	renamed := entry.RecurringEvent{ID: "r", ListID: "Monday", Value: "Retro (old)", SortKey: 5, Status: entry.StatusStatic, StartTime: "16:00", WeekdayEventID: "w3"}
	day := []entry.RecurringEvent{
		rec("m1", "Piano", "18:00", 1),
		hidden,
		stale,
		renamed,
	}

	got, _, err := m.SyncWeekdayTemplate(weekdays, day, "Monday")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !list.TimeOrdered(got) {
		t.Fatalf("expected time ordered template, got %+v", got)
	}
	if list.Index(got, "old") >= 0 {
		t.Fatalf("expected stale inherited entry to be dropped")
	}
	if i := list.Index(got, "h"); i < 0 || got[i].Status != entry.StatusHidden {
		t.Fatalf("expected hidden entry to stay hidden")
	}
	if i := list.Index(got, "r"); i < 0 || got[i].Value != "Retro" {
		t.Fatalf("expected inherited entry to follow the weekday template, got %+v", got)
	}
	gym := list.Index(got, DerivedID("Monday", SourceWeekday, "w1"))
	if gym < 0 || got[gym].WeekdayEventID != "w1" || got[gym].StartTime != "07:00" {
		t.Fatalf("expected Gym to be inherited, got %+v", got)
	}
	if list.Index(got, "m1") < 0 {
		t.Fatalf("expected own entry to be kept")
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(got))
	}
}

func TestSyncWeekdayTemplateSkipsWeekend(t *testing.T) {
	m := New(time.UTC)
	day := []entry.RecurringEvent{rec("s2", "Brunch", "", 2), rec("s1", "Run", "08:00", 1)}
	got, rebalanced, err := m.SyncWeekdayTemplate([]entry.RecurringEvent{rec("w1", "Gym", "07:00", 1)}, day, "Saturday")
	if err != nil || rebalanced {
		t.Fatalf("unexpected result: %v %v", rebalanced, err)
	}
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s2" {
		t.Fatalf("expected the Saturday template unchanged, got %+v", got)
	}
}
