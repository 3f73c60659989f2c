package options

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/timeutil"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// OnOptions selects the day a command works on.
type OnOptions struct {
	OnString string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions) {
	cmd.Flags().StringVar(&o.OnString, "on", "today",
		`Specify a day, example: --on="2020-2-28", --on="2/28" or --on=tomorrow.`)
}

// Period resolves the flag to a datestamp, relative to now in loc.
func (o *OnOptions) Period(now time.Time, loc *time.Location) (string, error) {
	now = now.In(loc)
	switch strings.ToLower(strings.TrimSpace(o.OnString)) {
	case "", "today":
		return timeutil.Datestamp(now), nil
	case "tomorrow":
		return timeutil.Datestamp(now.AddDate(0, 0, 1)), nil
	case "yesterday":
		return timeutil.Datestamp(now.AddDate(0, 0, -1)), nil
	}
	t, err := time.ParseInLocation(layoutISO, o.OnString, loc)
	if err != nil {
		// Let the year be the same.
		t, err = time.ParseInLocation(layoutISOShort, o.OnString, loc)
		if err != nil {
			return "", err
		}
		t = t.AddDate(now.Year(), 0, 0)
		// 1/3 said on 12/5 means next January.
		if timeutil.Datestamp(t) < timeutil.Datestamp(now.AddDate(0, -1, 0)) {
			t = t.AddDate(1, 0, 0)
		}
	}
	return timeutil.Datestamp(t), nil
}
