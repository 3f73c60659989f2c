// Package glyph maps planner item states and sources to the symbols printed
// next to them.
package glyph

import (
	"fmt"
	"sort"

	"tableflip.dev/planner/pkg/entry"
)

// Glyph is a printable symbol and what it means.
type Glyph struct {
	Symbol  string
	Meaning string
	// Source glyphs mark where an item came from rather than its state.
	Source  bool
	Printed bool
	Order   int
}

func (g Glyph) String() string {
	return g.Symbol
}

const (
	escape     = "\x1b"
	resetCode  = 0
	strikeCode = 9
)

// Strike wraps in with the terminal strikethrough escape.
func Strike(in string) string {
	return fmt.Sprintf("%s[%dm%s%s[%dm", escape, strikeCode, in, escape, resetCode)
}

// Source identifies where a planner item came from.
type Source string

const (
	Manual   Source = "manual"
	Calendar Source = "calendar"
	Template Source = "template"
	Timed    Source = "timed"
)

// DefaultStatuses returns the glyph for every lifecycle state.
func DefaultStatuses() map[entry.Status]Glyph {
	return map[entry.Status]Glyph{
		entry.StatusStatic:   {Symbol: "●", Meaning: "planned", Printed: true, Order: 0},
		entry.StatusEdit:     {Symbol: "✎", Meaning: "being edited", Printed: true, Order: 1},
		entry.StatusDelete:   {Symbol: "✘", Meaning: "pending delete", Printed: true, Order: 2},
		entry.StatusHidden:   {Symbol: "⦵", Meaning: "hidden", Printed: true, Order: 3},
		entry.StatusTransfer: {Symbol: "›", Meaning: "moving", Printed: true, Order: 4},
		entry.StatusNew:      {Symbol: "○", Meaning: "draft", Order: 5},
	}
}

// DefaultSources returns the glyph for every item source.
func DefaultSources() map[Source]Glyph {
	return map[Source]Glyph{
		Timed:    {Symbol: "◷", Meaning: "timed", Source: true, Printed: true, Order: 0},
		Calendar: {Symbol: "▣", Meaning: "from calendar", Source: true, Printed: true, Order: 1},
		Template: {Symbol: "↻", Meaning: "from template", Source: true, Printed: true, Order: 2},
		Manual:   {Symbol: " ", Meaning: "added by hand", Source: true, Order: 3},
	}
}

// ForStatus returns the glyph for s, or a blank glyph for unknown states.
func ForStatus(s entry.Status) Glyph {
	if g, ok := DefaultStatuses()[s]; ok {
		return g
	}
	return Glyph{Symbol: " ", Meaning: string(s)}
}

// SourceOf classifies a planner event.
func SourceOf(e entry.PlannerEvent) Source {
	switch {
	case e.CalendarID != "":
		return Calendar
	case e.RecurringID != "":
		return Template
	case e.TimeConfig != nil:
		return Timed
	}
	return Manual
}

// ForSource returns the glyph for src.
func ForSource(src Source) Glyph {
	return DefaultSources()[src]
}

// Printed returns the printable glyphs of a set in display order.
func Printed[K comparable](all map[K]Glyph) []Glyph {
	out := make([]Glyph, 0, len(all))
	for _, g := range all {
		if g.Printed {
			out = append(out, g)
		}
	}
	sort.Sort(ByOrder(out))
	return out
}

// ByOrder sorts glyphs by their display order.
type ByOrder []Glyph

func (a ByOrder) Len() int           { return len(a) }
func (a ByOrder) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ByOrder) Less(i, j int) bool { return a[i].Order < a[j].Order }
