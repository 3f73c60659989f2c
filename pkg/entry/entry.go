// Package entry defines the planner's list items and their lifecycle.
package entry

import (
	"strings"
	"time"
)

// TimeConfig carries the time span of a planner event.
type TimeConfig struct {
	Start         Timestamp `json:"startIso"`
	End           Timestamp `json:"endIso"`
	AllDay        bool      `json:"allDay,omitempty"`
	MultiDayStart bool      `json:"multiDayStart,omitempty"`
	MultiDayEnd   bool      `json:"multiDayEnd,omitempty"`
}

// Shift returns a copy of c moved by the given number of days. The time of
// day is preserved in each timestamp's own location.
func (c TimeConfig) Shift(days int) TimeConfig {
	out := c
	if !c.Start.IsZero() {
		out.Start = At(c.Start.AddDate(0, 0, days))
	}
	if !c.End.IsZero() {
		out.End = At(c.End.AddDate(0, 0, days))
	}
	return out
}

// PlannerEvent is an item in a single day's planner.
type PlannerEvent struct {
	ID          string      `json:"id"`
	ListID      string      `json:"listId"`
	Value       string      `json:"value"`
	SortKey     float64     `json:"sortKey"`
	Status      Status      `json:"status"`
	TimeConfig  *TimeConfig `json:"timeConfig,omitempty"`
	CalendarID  string      `json:"calendarId,omitempty"`
	RecurringID string      `json:"recurringId,omitempty"`
}

var _ Item = PlannerEvent{}

func (e PlannerEvent) Identity() string { return e.ID }
func (e PlannerEvent) Key() float64     { return e.SortKey }
func (e PlannerEvent) State() Status    { return e.Status }

// Derived reports whether the event is linked to a calendar or a template.
func (e PlannerEvent) Derived() bool {
	return e.CalendarID != "" || e.RecurringID != ""
}

// Time returns the instant used for ordering. Events that close a multi-day
// span order by their end so they sort near the closing day's other events.
// All-day events are untimed.
func (e PlannerEvent) Time() (TimeValue, bool) {
	if e.TimeConfig == nil || e.TimeConfig.AllDay {
		return TimeValue{}, false
	}
	at := e.TimeConfig.Start.Time
	if e.TimeConfig.MultiDayEnd {
		at = e.TimeConfig.End.Time
	}
	if at.IsZero() {
		return TimeValue{}, false
	}
	return InstantTime(at), true
}

// WithKey returns a copy of e with the given sort key.
func (e PlannerEvent) WithKey(k float64) PlannerEvent {
	out := e.Clone()
	out.SortKey = k
	return out
}

// Clone returns a deep copy of e.
func (e PlannerEvent) Clone() PlannerEvent {
	out := e
	if e.TimeConfig != nil {
		tc := *e.TimeConfig
		out.TimeConfig = &tc
	}
	return out
}

// Empty reports whether the event has no content.
func (e PlannerEvent) Empty() bool {
	return strings.TrimSpace(e.Value) == ""
}

// Subject describes e for lifecycle transitions.
func (e PlannerEvent) Subject() Subject {
	return Subject{Derived: e.Derived(), Empty: e.Empty()}
}

// RecurringEvent is an item in a weekday template.
type RecurringEvent struct {
	ID      string  `json:"id"`
	ListID  string  `json:"listId"`
	Value   string  `json:"value"`
	SortKey float64 `json:"sortKey"`
	Status  Status  `json:"status"`
	// StartTime is a bare time of day, "HH:MM".
	StartTime string `json:"startTime,omitempty"`
	// WeekdayEventID links to the shared weekday template event this one
	// was inherited from.
	WeekdayEventID string `json:"weekdayEventId,omitempty"`
}

var _ Item = RecurringEvent{}

func (e RecurringEvent) Identity() string { return e.ID }
func (e RecurringEvent) Key() float64     { return e.SortKey }
func (e RecurringEvent) State() Status    { return e.Status }
func (e RecurringEvent) Derived() bool    { return e.WeekdayEventID != "" }

func (e RecurringEvent) Time() (TimeValue, bool) {
	if strings.TrimSpace(e.StartTime) == "" {
		return TimeValue{}, false
	}
	return ClockTime(e.StartTime), true
}

// WithKey returns a copy of e with the given sort key.
func (e RecurringEvent) WithKey(k float64) RecurringEvent {
	e.SortKey = k
	return e
}

// Empty reports whether the event has no content.
func (e RecurringEvent) Empty() bool {
	return strings.TrimSpace(e.Value) == ""
}

// Subject describes e for lifecycle transitions.
func (e RecurringEvent) Subject() Subject {
	return Subject{Derived: e.Derived(), Empty: e.Empty()}
}

// CalendarItem is a single event read from an external calendar for one
// period.
type CalendarItem struct {
	ExternalID    string    `json:"externalId"`
	Title         string    `json:"title"`
	Start         Timestamp `json:"startIso"`
	End           Timestamp `json:"endIso"`
	AllDay        bool      `json:"allDay,omitempty"`
	MultiDayStart bool      `json:"multiDayStart,omitempty"`
	MultiDayEnd   bool      `json:"multiDayEnd,omitempty"`
}

// TimeConfig converts the calendar span into a planner time config.
func (c CalendarItem) TimeConfig() *TimeConfig {
	return &TimeConfig{
		Start:         c.Start,
		End:           c.End,
		AllDay:        c.AllDay,
		MultiDayStart: c.MultiDayStart,
		MultiDayEnd:   c.MultiDayEnd,
	}
}

// Span reports the calendar item's start and end.
func (c CalendarItem) Span() (time.Time, time.Time) {
	return c.Start.Time, c.End.Time
}
