package glyph

import (
	"testing"
	"time"

	"tableflip.dev/planner/pkg/entry"
)

func TestEveryStatusHasGlyph(t *testing.T) {
	all := DefaultStatuses()
	for _, s := range entry.AllStatuses() {
		if _, ok := all[s]; !ok {
			t.Fatalf("missing glyph for %s", s)
		}
	}
	if got := ForStatus("BOGUS").Symbol; got != " " {
		t.Fatalf("unknown status glyph = %q", got)
	}
}

func TestSourceOf(t *testing.T) {
	tc := &entry.TimeConfig{Start: entry.At(time.Unix(0, 0))}
	tests := map[string]struct {
		e    entry.PlannerEvent
		want Source
	}{
		"manual":   {e: entry.PlannerEvent{ID: "a"}, want: Manual},
		"timed":    {e: entry.PlannerEvent{ID: "a", TimeConfig: tc}, want: Timed},
		"calendar": {e: entry.PlannerEvent{ID: "a", TimeConfig: tc, CalendarID: "c"}, want: Calendar},
		"template": {e: entry.PlannerEvent{ID: "a", RecurringID: "r"}, want: Template},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := SourceOf(tt.e); got != tt.want {
				t.Fatalf("SourceOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPrintedOrder(t *testing.T) {
	got := Printed(DefaultStatuses())
	if len(got) != 5 {
		t.Fatalf("expected 5 printed status glyphs, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Order > got[i].Order {
			t.Fatalf("glyphs out of order: %+v", got)
		}
	}
	if got[0].Meaning != "planned" {
		t.Fatalf("first glyph = %+v", got[0])
	}
}
