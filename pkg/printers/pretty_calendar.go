package printers

import (
	"strings"
	"time"

	"github.com/fatih/color"
)

const width = len("11 12 13 14 15 16 17") // an example week

// PrintMonthCount prints a month grid; days with a non-zero count are bold.
func (pp *PrettyPrint) PrintMonthCount(then time.Time, count []int) {
	d := StartDay(then)
	w := pp.out()

	tf := color.New(color.FgWhite, color.Italic)

	m := then.Month().String() + " " + then.Format("2006")
	mid := (width - len(m)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = tf.Fprintf(w, "%s%s\n", strings.Repeat(" ", mid), m)

	// Pad out the start of the month.
	_, _ = color.New().Fprint(w, strings.Repeat("   ", int(d)))

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)

	for i := 0; i < DaysIn(then); i++ {
		if i < len(count) && count[i] > 0 {
			_, _ = l2.Fprintf(w, "%2d ", i+1)
		} else {
			_, _ = l1.Fprintf(w, "%2d ", i+1)
		}

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = color.New().Fprint(w, "\n")
		}
	}
	_, _ = color.New().Fprint(w, "\n\n")
}

func NextMonth(then time.Time) time.Time {
	return time.Date(then.Year(), then.Month()+1, 1, 0, 0, 0, 0, then.Location())
}

func DaysIn(then time.Time) int {
	return time.Date(then.Year(), then.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartDay(then time.Time) time.Weekday {
	return time.Date(then.Year(), then.Month(), 1, 0, 0, 0, 0, time.UTC).Weekday()
}
