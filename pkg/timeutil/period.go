package timeutil

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the datestamp layout used for period identifiers.
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// Datestamp returns the period identifier for t in t's location.
func Datestamp(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDatestamp parses a period identifier as midnight in loc.
func ParseDatestamp(period string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, period, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid datestamp %q: %w", period, err)
	}
	return t, nil
}

// DayBounds returns the first and last instant of period in loc.
func DayBounds(period string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDatestamp(period, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// ParseClock validates a time of day and returns it as zero-padded "HH:MM".
func ParseClock(clock string) (string, error) {
	m := clockPattern.FindStringSubmatch(clock)
	if m == nil {
		return "", fmt.Errorf("timeutil: invalid time of day %q", clock)
	}
	h := m[1]
	if len(h) == 1 {
		h = "0" + h
	}
	return h + ":" + m[2], nil
}

// ClockOn returns the instant clock falls on during period in loc.
func ClockOn(period, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDatestamp(period, loc)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	hm, _ := time.Parse("15:04", c)
	return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, day.Location()), nil
}

// Weekday returns the day of the week of period.
func Weekday(period string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, period)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid datestamp %q: %w", period, err)
	}
	return t.Weekday(), nil
}

// DayKey returns the weekday template key for period, e.g. "Monday".
func DayKey(period string) (string, error) {
	d, err := Weekday(period)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// IsWorkday reports whether the weekday template key names Monday through
// Friday.
func IsWorkday(dayKey string) bool {
	switch dayKey {
	case "Monday", "Tuesday", "Wednesday", "Thursday", "Friday":
		return true
	}
	return false
}

// NextDay returns the period after period.
func NextDay(period string) (string, error) {
	return addDays(period, 1)
}

// PrevDay returns the period before period.
func PrevDay(period string) (string, error) {
	return addDays(period, -1)
}

func addDays(period string, n int) (string, error) {
	t, err := time.Parse(DateLayout, period)
	if err != nil {
		return "", fmt.Errorf("timeutil: invalid datestamp %q: %w", period, err)
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// DaysBetween counts the calendar days from one period to another; it is
// negative when to comes first.
func DaysBetween(from, to string) (int, error) {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid datestamp %q: %w", from, err)
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid datestamp %q: %w", to, err)
	}
	return int(b.Sub(a).Hours() / 24), nil
}
