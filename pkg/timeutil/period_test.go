package timeutil

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := map[string]string{
		"09:00": "09:00",
		"9:05":  "09:05",
		"23:55": "23:55",
	}
	for in, want := range tests {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	for _, bad := range []string{"24:00", "12:60", "noon", ""} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestClockOn(t *testing.T) {
	loc := time.FixedZone("test", -5*60*60)
	got, err := ClockOn("2024-03-09", "7:30", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(time.RFC3339) != "2024-03-09T07:30:00-05:00" {
		t.Fatalf("unexpected instant %s", got.Format(time.RFC3339))
	}
}

func TestDayKeys(t *testing.T) {
	key, err := DayKey("2024-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "Monday" || !IsWorkday(key) {
		t.Fatalf("expected workday Monday, got %s", key)
	}
	if IsWorkday("Sunday") {
		t.Fatalf("expected Sunday to be a weekend day")
	}
}

func TestAdjacentDays(t *testing.T) {
	next, err := NextDay("2024-02-28")
	if err != nil || next != "2024-02-29" {
		t.Fatalf("expected 2024-02-29, got %s (%v)", next, err)
	}
	prev, err := PrevDay("2024-03-01")
	if err != nil || prev != "2024-02-29" {
		t.Fatalf("expected 2024-02-29, got %s (%v)", prev, err)
	}
	if _, err := NextDay("yesterday"); err == nil {
		t.Fatalf("expected error for invalid datestamp")
	}
}

func TestDayBounds(t *testing.T) {
	start, end, err := DayBounds("2024-01-01", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Datestamp(start) != "2024-01-01" || Datestamp(end) != "2024-01-01" {
		t.Fatalf("bounds leave the day: %s %s", start, end)
	}
	if end.Sub(start) != 24*time.Hour-time.Nanosecond {
		t.Fatalf("unexpected span %v", end.Sub(start))
	}
}

func TestCutoff(t *testing.T) {
	got, err := Cutoff("2024-01-10", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2024-01-03" {
		t.Fatalf("expected 2024-01-03, got %s", got)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2024-01-01", "2024-01-02", 1},
		{"2024-01-02", "2024-01-05", 3},
		{"2024-02-28", "2024-03-01", 2},
		{"2024-12-31", "2025-01-01", 1},
		{"2024-01-05", "2024-01-01", -4},
	}
	for _, tc := range tests {
		got, err := DaysBetween(tc.from, tc.to)
		if err != nil {
			t.Fatalf("DaysBetween(%s, %s): %v", tc.from, tc.to, err)
		}
		if got != tc.want {
			t.Fatalf("DaysBetween(%s, %s) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
	if _, err := DaysBetween("today", "2024-01-01"); err == nil {
		t.Fatal("expected error for a bad datestamp")
	}
}
