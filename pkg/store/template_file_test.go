package store

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tableflip.dev/planner/pkg/entry"
)

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestDecodeTemplates(t *testing.T) {
	src := `
Weekdays:
  - value: Standup
    at: "9:00"
  - value: Lunch
    at: "12:30"
Monday:
  - id: m1
    value: Standup
    status: hidden
    inherits: id-1
  - value: Gym
`
	got, err := DecodeTemplates(strings.NewReader(src), seqID())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	wd := got[WeekdaysKey]
	if len(wd) != 2 {
		t.Fatalf("weekdays = %+v", wd)
	}
	if wd[0].StartTime != "09:00" || wd[0].SortKey >= wd[1].SortKey || wd[0].ListID != WeekdaysKey {
		t.Fatalf("unexpected weekday entry %+v", wd[0])
	}
	mon := got["Monday"]
	if mon[0].ID != "m1" || mon[0].Status != entry.StatusHidden || mon[0].WeekdayEventID != "id-1" {
		t.Fatalf("unexpected monday entry %+v", mon[0])
	}
	if mon[1].StartTime != "" || mon[1].Status != entry.StatusStatic {
		t.Fatalf("unexpected untimed entry %+v", mon[1])
	}
}

func TestDecodeTemplatesRejects(t *testing.T) {
	cases := map[string]string{
		"day":    "Someday:\n  - value: x\n",
		"clock":  "Monday:\n  - value: x\n    at: \"25:00\"\n",
		"status": "Monday:\n  - value: x\n    status: DONE\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeTemplates(strings.NewReader(src), seqID()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	_, err := DecodeTemplates(strings.NewReader(cases["day"]), seqID())
	if !errors.Is(err, ErrUnknownDay) {
		t.Fatalf("expected ErrUnknownDay, got %v", err)
	}
}

func TestEncodeTemplatesRoundTrip(t *testing.T) {
	in := map[string][]entry.RecurringEvent{
		"Tuesday": {
			{ID: "t2", ListID: "Tuesday", Value: "Review", SortKey: 4, Status: entry.StatusStatic},
			{ID: "t1", ListID: "Tuesday", Value: "Standup", SortKey: 2, Status: entry.StatusHidden, StartTime: "09:00", WeekdayEventID: "w1"},
		},
		WeekdaysKey: {
			{ID: "w1", ListID: WeekdaysKey, Value: "Standup", SortKey: 1, Status: entry.StatusStatic, StartTime: "09:00"},
		},
	}
	var buf bytes.Buffer
	if err := EncodeTemplates(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Tuesday:") > strings.Index(out, "Weekdays:") {
		t.Fatalf("days not sorted:\n%s", out)
	}

	back, err := DecodeTemplates(strings.NewReader(out), seqID())
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	tue := back["Tuesday"]
	if len(tue) != 2 || tue[0].ID != "t1" || tue[1].ID != "t2" {
		t.Fatalf("order not preserved: %+v", tue)
	}
	if tue[0].Status != entry.StatusHidden || tue[0].WeekdayEventID != "w1" || tue[0].StartTime != "09:00" {
		t.Fatalf("fields lost: %+v", tue[0])
	}
}
