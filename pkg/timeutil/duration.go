package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DefaultWindow is how far back planners are kept and reported when nothing
// else is configured.
const DefaultWindow = "1w"

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// windowUnits is ordered largest first so FormatWindow can walk it.
var windowUnits = []struct {
	label   string
	aliases []string
	size    time.Duration
}{
	{"w", []string{"w", "wk", "wks", "week", "weeks"}, week},
	{"d", []string{"d", "day", "days"}, day},
	{"h", []string{"h", "hr", "hrs", "hour", "hours"}, time.Hour},
	{"m", []string{"m", "min", "mins", "minute", "minutes"}, time.Minute},
	{"s", []string{"s", "sec", "secs", "second", "seconds"}, time.Second},
}

func unitSize(name string) (time.Duration, bool) {
	for _, u := range windowUnits {
		for _, a := range u.aliases {
			if a == name {
				return u.size, true
			}
		}
	}
	return 0, false
}

// ParseWindow reads a retention or report window such as "3d", "1w" or
// "2 weeks 1d". It returns the duration and its compact label. Empty input
// means DefaultWindow.
func ParseWindow(input string) (time.Duration, string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		s = DefaultWindow
	}

	var total time.Duration
	for s != "" {
		digits := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
		if digits <= 0 {
			return 0, "", fmt.Errorf("timeutil: invalid window %q", input)
		}
		n, err := strconv.Atoi(s[:digits])
		if err != nil {
			return 0, "", fmt.Errorf("timeutil: invalid window %q: %w", input, err)
		}
		s = strings.TrimLeft(s[digits:], " ")

		letters := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
		if letters < 0 {
			letters = len(s)
		}
		size, ok := unitSize(s[:letters])
		if !ok {
			return 0, "", fmt.Errorf("timeutil: unknown window unit %q", s[:letters])
		}
		total += time.Duration(n) * size
		s = strings.TrimLeft(s[letters:], " ")
	}

	if total <= 0 {
		return 0, "", errors.New("timeutil: window must be positive")
	}
	return total, FormatWindow(total), nil
}

// FormatWindow is the inverse of ParseWindow, "1w2d" style.
func FormatWindow(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	var b strings.Builder
	for _, u := range windowUnits {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.label)
			d -= n * u.size
		}
	}
	if b.Len() == 0 {
		return "0s"
	}
	return b.String()
}

// Cutoff returns the datestamp of the oldest period a retention window keeps
// when today is the current period. Windows shorter than a day keep today only.
func Cutoff(today string, window time.Duration) (string, error) {
	t, err := time.Parse(DateLayout, today)
	if err != nil {
		return "", fmt.Errorf("timeutil: invalid datestamp %q: %w", today, err)
	}
	return t.AddDate(0, 0, -int(window/day)).Format(DateLayout), nil
}
