package entry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		action  Action
		subject Subject
		want    Outcome
		wantErr bool
	}{
		{name: "commit draft", from: StatusNew, action: ActionCommit, want: Outcome{Status: StatusStatic}},
		{name: "commit empty draft", from: StatusNew, action: ActionCommit, subject: Subject{Empty: true}, want: Outcome{Remove: true}},
		{name: "commit edit", from: StatusEdit, action: ActionCommit, want: Outcome{Status: StatusStatic}},
		{name: "commit emptied edit", from: StatusEdit, action: ActionCommit, subject: Subject{Empty: true}, want: Outcome{Remove: true}},
		{name: "begin edit", from: StatusStatic, action: ActionBeginEdit, want: Outcome{Status: StatusEdit}},
		{name: "toggle delete on", from: StatusStatic, action: ActionToggleDelete, want: Outcome{Status: StatusDelete}},
		{name: "toggle delete off", from: StatusDelete, action: ActionToggleDelete, want: Outcome{Status: StatusStatic}},
		{name: "confirm derived delete", from: StatusDelete, action: ActionConfirmDelete, subject: Subject{Derived: true}, want: Outcome{Status: StatusHidden}},
		{name: "confirm manual delete", from: StatusDelete, action: ActionConfirmDelete, want: Outcome{Remove: true}},
		{name: "container transfer", from: StatusStatic, action: ActionBeginTransfer, subject: Subject{Container: true}, want: Outcome{Status: StatusTransfer}},
		{name: "container transfer done", from: StatusTransfer, action: ActionEndTransfer, subject: Subject{Container: true}, want: Outcome{Status: StatusStatic}},
		{name: "transfer needs container", from: StatusStatic, action: ActionBeginTransfer, want: Outcome{Status: StatusStatic}, wantErr: true},
		{name: "hidden is terminal", from: StatusHidden, action: ActionToggleDelete, want: Outcome{Status: StatusHidden}, wantErr: true},
		{name: "hidden cannot edit", from: StatusHidden, action: ActionBeginEdit, want: Outcome{Status: StatusHidden}, wantErr: true},
		{name: "confirm requires pending", from: StatusStatic, action: ActionConfirmDelete, want: Outcome{Status: StatusStatic}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.from, tc.action, tc.subject)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("expected %s, got %s (%v)", s, got, err)
		}
	}
	if _, err := ParseStatus("DONE"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestPredicates(t *testing.T) {
	draft := PlannerEvent{ID: "a", Status: StatusNew}
	if !IsEditing(draft) || IsPendingDelete(draft) || IsDerived(draft) {
		t.Fatalf("unexpected predicates for draft")
	}
	linked := PlannerEvent{ID: "b", Status: StatusDelete, CalendarID: "c1"}
	if !IsPendingDelete(linked) || !IsDerived(linked) {
		t.Fatalf("unexpected predicates for linked item")
	}
	hidden := RecurringEvent{ID: "c", Status: StatusHidden, WeekdayEventID: "w1"}
	if IsVisible(hidden) || !IsDerived(hidden) {
		t.Fatalf("unexpected predicates for hidden item")
	}
}

func TestTimeValueCompare(t *testing.T) {
	nine := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ten := nine.Add(time.Hour)

	if ClockTime("09:00").Compare(ClockTime("10:30")) != -1 {
		t.Fatalf("expected 09:00 < 10:30")
	}
	if ClockTime("10:30").Compare(ClockTime("10:30")) != 0 {
		t.Fatalf("expected equal clocks")
	}
	if InstantTime(ten).Compare(InstantTime(nine)) != 1 {
		t.Fatalf("expected 10:00 > 09:00")
	}
	if InstantTime(nine.AddDate(0, 0, 1)).Compare(InstantTime(ten)) != 1 {
		t.Fatalf("expected instants to compare by date")
	}
	if InstantTime(nine).Compare(ClockTime("09:00")) != 0 {
		t.Fatalf("expected mixed kinds to compare by time of day")
	}
}

func TestPlannerEventTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	e := PlannerEvent{ID: "a", TimeConfig: &TimeConfig{Start: At(start), End: At(end)}}

	got, ok := e.Time()
	if !ok || got.Compare(InstantTime(start)) != 0 {
		t.Fatalf("expected start time, got %v", got)
	}

	e.TimeConfig.MultiDayEnd = true
	got, ok = e.Time()
	if !ok || got.Compare(InstantTime(end)) != 0 {
		t.Fatalf("expected end time for multi-day end, got %v", got)
	}

	if _, ok := (PlannerEvent{ID: "b"}).Time(); ok {
		t.Fatalf("expected untimed event")
	}
}

func TestRecurringEventTime(t *testing.T) {
	if _, ok := (RecurringEvent{ID: "a"}).Time(); ok {
		t.Fatalf("expected untimed event")
	}
	got, ok := RecurringEvent{ID: "a", StartTime: "07:15"}.Time()
	if !ok || got.Kind() != KindClock || got.String() != "07:15" {
		t.Fatalf("expected clock 07:15, got %v", got)
	}
}

func TestWithKeyDoesNotAlias(t *testing.T) {
	e := PlannerEvent{ID: "a", SortKey: 1, TimeConfig: &TimeConfig{AllDay: false}}
	moved := e.WithKey(2)
	moved.TimeConfig.AllDay = true
	if e.SortKey != 1 || e.TimeConfig.AllDay {
		t.Fatalf("WithKey modified the original")
	}
}

func TestShift(t *testing.T) {
	start, _ := ParseTime("2024-01-01T10:00:00Z")
	c := TimeConfig{Start: At(start), End: At(start.Add(time.Hour))}.Shift(1)
	if c.Start.String() != "2024-01-02T10:00:00Z" || c.End.String() != "2024-01-02T11:00:00Z" {
		t.Fatalf("unexpected shift: %s %s", c.Start, c.End)
	}
}

func TestPlannerEventJSON(t *testing.T) {
	start, _ := ParseTime("2024-01-01T12:00:00+01:00")
	e := PlannerEvent{
		ID:         "a",
		ListID:     "2024-01-01",
		Value:      "Lunch",
		SortKey:    1,
		Status:     StatusStatic,
		TimeConfig: &TimeConfig{Start: At(start), End: At(start.Add(time.Hour))},
		CalendarID: "c1",
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"a","listId":"2024-01-01","value":"Lunch","sortKey":1,"status":"STATIC","timeConfig":{"startIso":"2024-01-01T12:00:00+01:00","endIso":"2024-01-01T13:00:00+01:00"},"calendarId":"c1"}`
	if string(b) != want {
		t.Fatalf("expected %s, got %s", want, b)
	}

	var back PlannerEvent
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.TimeConfig.Start.Equal(start) || back.CalendarID != "c1" {
		t.Fatalf("unexpected round trip: %+v", back)
	}
}

func TestTimestampSameDay(t *testing.T) {
	ts := At(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	if !ts.SameDay(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected same day")
	}
	if ts.SameDay(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected different day")
	}
}
