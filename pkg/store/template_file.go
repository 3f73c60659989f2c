package store

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
	"tableflip.dev/planner/pkg/sortkey"
	"tableflip.dev/planner/pkg/timeutil"
)

// ErrUnknownDay is returned for a template key that is neither a weekday
// name nor WeekdaysKey.
var ErrUnknownDay = errors.New("store: unknown template day")

// TemplateEntry is one line of a template file.
type TemplateEntry struct {
	ID       string `yaml:"id,omitempty"`
	Value    string `yaml:"value"`
	At       string `yaml:"at,omitempty"`
	Status   string `yaml:"status,omitempty"`
	Inherits string `yaml:"inherits,omitempty"`
}

// TemplateFile maps a day key to its entries in display order.
type TemplateFile map[string][]TemplateEntry

// Days lists every template key: the shared weekday template, then the days
// of the week starting on Sunday.
func Days() []string {
	return []string{WeekdaysKey, "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
}

// ValidDay reports whether day can hold a template.
func ValidDay(day string) bool {
	for _, d := range Days() {
		if d == day {
			return true
		}
	}
	return false
}

// DecodeTemplates reads a YAML template file. Entries without an id get one
// from newID and keys follow file order.
func DecodeTemplates(r io.Reader, newID func() string) (map[string][]entry.RecurringEvent, error) {
	var file TemplateFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string][]entry.RecurringEvent{}, nil
		}
		return nil, fmt.Errorf("store: decode templates: %w", err)
	}

	out := make(map[string][]entry.RecurringEvent, len(file))
	for day, entries := range file {
		if !ValidDay(day) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDay, day)
		}
		keys := sortkey.Spread(len(entries))
		events := make([]entry.RecurringEvent, 0, len(entries))
		for i, te := range entries {
			ev, err := te.event(day, keys[i], newID)
			if err != nil {
				return nil, fmt.Errorf("store: %s entry %d: %w", day, i+1, err)
			}
			events = append(events, ev)
		}
		out[day] = events
	}
	return out, nil
}

func (te TemplateEntry) event(day string, key float64, newID func() string) (entry.RecurringEvent, error) {
	ev := entry.RecurringEvent{
		ID:             te.ID,
		ListID:         day,
		Value:          strings.TrimSpace(te.Value),
		SortKey:        key,
		Status:         entry.StatusStatic,
		WeekdayEventID: te.Inherits,
	}
	if ev.ID == "" {
		ev.ID = newID()
	}
	if te.Status != "" {
		st, err := entry.ParseStatus(strings.ToUpper(te.Status))
		if err != nil {
			return ev, err
		}
		ev.Status = st
	}
	if te.At != "" {
		clock, err := timeutil.ParseClock(te.At)
		if err != nil {
			return ev, err
		}
		ev.StartTime = clock
	}
	return ev, nil
}

// EncodeTemplates writes templates as YAML, days in sorted order.
func EncodeTemplates(w io.Writer, templates map[string][]entry.RecurringEvent) error {
	days := make([]string, 0, len(templates))
	for d := range templates {
		days = append(days, d)
	}
	sort.Strings(days)

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, day := range days {
		var entries []TemplateEntry
		for _, ev := range list.Sorted(templates[day]) {
			te := TemplateEntry{ID: ev.ID, Value: ev.Value, At: ev.StartTime, Inherits: ev.WeekdayEventID}
			if ev.Status != entry.StatusStatic {
				te.Status = string(ev.Status)
			}
			entries = append(entries, te)
		}
		var val yaml.Node
		if err := val.Encode(entries); err != nil {
			return fmt.Errorf("store: encode %s: %w", day, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: day}, &val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("store: encode templates: %w", err)
	}
	return enc.Close()
}
