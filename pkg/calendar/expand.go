package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"tableflip.dev/planner/pkg/log"
)

const maxOccurrencesPerEvent = 5000

// expand turns parsed events into the occurrences overlapping
// [from, to]. Recurring instances get the id "<uid>/<start RFC3339>" so each
// instance links to its own planner item.
func expand(events []vevent, from, to time.Time) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, errors.New("calendar: range end before start")
	}

	base := make(map[string][]vevent)
	overrides := make(map[string][]vevent)
	for _, ev := range events {
		if ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		} else {
			base[ev.UID] = append(base[ev.UID], ev)
		}
	}

	uids := make([]string, 0, len(base))
	for uid := range base {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	var out []Occurrence
	for _, uid := range uids {
		for _, ev := range base[uid] {
			if ev.RRule == "" {
				if overlaps(ev.Start, ev.End, from, to) {
					out = append(out, occurrence(ev, ev.UID, ev.Start, ev.End))
				}
				continue
			}
			out = append(out, expandRecurring(ev, overrides[uid], from, to)...)
		}
	}
	return out, nil
}

func expandRecurring(ev vevent, overrides []vevent, from, to time.Time) []Occurrence {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		log.Error("calendar: bad RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	// Widen the lower bound so instances that started earlier but end in
	// range are still seen.
	starts := set.Between(from.Add(-dur).In(ev.Start.Location()), to.In(ev.Start.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		log.Warn("calendar: truncated occurrences", "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		starts = starts[:maxOccurrencesPerEvent]
	}

	var out []Occurrence
	for _, s := range starts {
		id := ev.UID + "/" + s.UTC().Format(time.RFC3339)
		inst, start, end := ev, s, s.Add(dur)
		if o, ok := findOverride(overrides, s); ok {
			inst, start, end = o, o.Start, o.End
		}
		if overlaps(start, end, from, to) {
			out = append(out, occurrence(inst, id, start, end))
		}
	}
	return out
}

func findOverride(overrides []vevent, start time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.Recurrence.Equal(start) {
			return o, true
		}
	}
	return vevent{}, false
}

func occurrence(ev vevent, id string, start, end time.Time) Occurrence {
	return Occurrence{ID: id, Title: ev.Summary, Start: start, End: end, AllDay: ev.AllDay}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
