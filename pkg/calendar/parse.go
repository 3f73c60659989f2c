package calendar

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"tableflip.dev/planner/pkg/log"
)

// vevent is a VEVENT before recurrence expansion.
type vevent struct {
	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule      string
	ExDates    []time.Time
	Recurrence *time.Time
}

// parseICS reads every VEVENT in body. Events that cannot be read are logged
// and skipped.
func parseICS(name string, body []byte, loc *time.Location) ([]vevent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("calendar: empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out []vevent
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp, loc)
		if err != nil {
			log.Warn("calendar: skipping vevent", "source", name, "err", err)
			continue
		}
		out = append(out, ev)
	}
	log.Debug("calendar: parsed", "source", name, "events", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (vevent, error) {
	var out vevent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	if !strings.Contains(dtStart.Value, "T") {
		out.AllDay = true
	}
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		out.AllDay = true
	}

	var err error
	if out.Start, err = ve.GetStartAt(); err != nil {
		return out, err
	}
	if out.End, err = ve.GetEndAt(); err != nil {
		// DTEND is optional; a timed event without one is instantaneous.
		out.End = out.Start
		if out.AllDay {
			out.End = out.Start.AddDate(0, 0, 1)
		}
	}
	_, hasTZ := dtStart.ICalParameters["TZID"]
	if !hasTZ && !strings.HasSuffix(dtStart.Value, "Z") {
		// floating time
		out.Start = reinterpret(out.Start, loc)
		out.End = reinterpret(out.End, loc)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, loc); err == nil {
			out.Recurrence = &t
		}
	}
	return out, nil
}

func reinterpret(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// parseICSTime handles the basic DATE, DATE-TIME and UTC forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
