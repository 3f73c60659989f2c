package entry

import (
	"strings"
	"time"
)

// Item is implemented by every entity that lives in a sortable list.
type Item interface {
	// Identity is assigned once at creation and never reused.
	Identity() string
	// Key is the item's sort key.
	Key() float64
	// State is the item's lifecycle status.
	State() Status
	// Time is the value used for chronological ordering, if any.
	Time() (TimeValue, bool)
	// Derived reports whether a calendar or template owns the item's content.
	Derived() bool
}

// TimeKind tells which representation a TimeValue carries.
type TimeKind int

const (
	// KindClock is a bare time of day, "HH:MM".
	KindClock TimeKind = iota + 1
	// KindInstant is an absolute point in time.
	KindInstant
)

// TimeValue is either a clock time or an instant.
type TimeValue struct {
	kind  TimeKind
	clock string
	at    time.Time
}

// ClockTime wraps an "HH:MM" string.
func ClockTime(hhmm string) TimeValue {
	return TimeValue{kind: KindClock, clock: strings.TrimSpace(hhmm)}
}

// InstantTime wraps an absolute time.
func InstantTime(t time.Time) TimeValue {
	return TimeValue{kind: KindInstant, at: t}
}

// Kind returns the representation of v.
func (v TimeValue) Kind() TimeKind {
	return v.kind
}

// Compare returns -1, 0 or 1. Clocks compare lexicographically and instants
// chronologically. A clock and an instant compare by the instant's time of day.
func (v TimeValue) Compare(o TimeValue) int {
	if v.kind == KindInstant && o.kind == KindInstant {
		switch {
		case v.at.Before(o.at):
			return -1
		case v.at.After(o.at):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(v.clockString(), o.clockString())
}

func (v TimeValue) clockString() string {
	if v.kind == KindInstant {
		return v.at.Format("15:04")
	}
	return v.clock
}

// String renders the value for display.
func (v TimeValue) String() string {
	switch v.kind {
	case KindInstant:
		return v.at.Format(time.RFC3339)
	case KindClock:
		return v.clock
	default:
		return ""
	}
}
