// Package printers renders planner lists to a terminal.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/glyph"
)

type PrettyPrint struct {
	ShowID bool
	// ShowHidden includes hidden and pending-delete items.
	ShowHidden bool
	Out        io.Writer
}

var (
	spacing = strings.Repeat(" ", len("2024-01-01/calendar/abcdef  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " item")
	default:
		_, _ = c.Fprintln(pp.out(), " items")
	}
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = f.Fprint(pp.out(), spacing)
	}
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

func (pp *PrettyPrint) id(id string) {
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	_, _ = y.Fprint(pp.out(), id)
	pad := len(spacing) - len(id)
	if pad < 1 {
		pad = 1
	}
	_, _ = y.Fprint(pp.out(), strings.Repeat(" ", pad))
}

// Planner prints a day's items in list order.
func (pp *PrettyPrint) Planner(events ...entry.PlannerEvent) {
	shown := make([]entry.PlannerEvent, 0, len(events))
	for _, e := range events {
		if pp.ShowHidden || entry.IsVisible(e) {
			shown = append(shown, e)
		}
	}
	if len(shown) == 0 {
		pp.none()
		return
	}

	t := color.New()
	faint := color.New(color.Faint)
	for _, e := range shown {
		if pp.ShowID {
			pp.id(e.ID)
		}
		status := glyph.ForStatus(e.Status)
		source := glyph.ForSource(glyph.SourceOf(e))
		value := e.Value
		if e.Status == entry.StatusDelete || e.Status == entry.StatusHidden {
			value = glyph.Strike(value)
		}
		_, _ = t.Fprintf(pp.out(), "%s %s %s", status, source, when(e))
		_, _ = t.Fprint(pp.out(), value)
		if e.TimeConfig != nil && e.TimeConfig.MultiDayStart {
			_, _ = faint.Fprint(pp.out(), " →")
		}
		_, _ = t.Fprintln(pp.out(), "")
	}
	_, _ = t.Fprintln(pp.out(), "")
}

// Templates prints a day template's entries.
func (pp *PrettyPrint) Templates(events ...entry.RecurringEvent) {
	shown := make([]entry.RecurringEvent, 0, len(events))
	for _, e := range events {
		if pp.ShowHidden || entry.IsVisible(e) {
			shown = append(shown, e)
		}
	}
	if len(shown) == 0 {
		pp.none()
		return
	}

	t := color.New()
	for _, e := range shown {
		if pp.ShowID {
			pp.id(e.ID)
		}
		src := glyph.Manual
		if e.Derived() {
			src = glyph.Template
		}
		clock := "      "
		if e.StartTime != "" {
			clock = e.StartTime + " "
		}
		value := e.Value
		if e.Status == entry.StatusHidden {
			value = glyph.Strike(value)
		}
		_, _ = t.Fprintf(pp.out(), "%s %s %s%s\n", glyph.ForStatus(e.Status), glyph.ForSource(src), clock, value)
	}
	_, _ = t.Fprintln(pp.out(), "")
}

func when(e entry.PlannerEvent) string {
	tc := e.TimeConfig
	if tc == nil || tc.AllDay {
		return "             "
	}
	start := tc.Start.Format("15:04")
	end := tc.End.Format("15:04")
	if tc.MultiDayEnd {
		start = "…"
	}
	if tc.MultiDayStart {
		end = "…"
	}
	return fmt.Sprintf("%5s-%-5s  ", start, end)
}
