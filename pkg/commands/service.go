package commands

import (
	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/calendar"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/timeutil"
)

// openService reads the configuration and builds the planner service it
// describes. The caller closes the returned persistence.
func openService() (*app.Service, *store.Settings, error) {
	settings, err := store.LoadSettings()
	if err != nil {
		return nil, nil, err
	}
	logs.Apply(settings.LogLevel)

	loc, err := settings.Location()
	if err != nil {
		return nil, nil, err
	}
	keep, _, err := timeutil.ParseWindow(settings.Keep)
	if err != nil {
		return nil, nil, err
	}
	p, err := store.Load(settings)
	if err != nil {
		return nil, nil, err
	}

	svc := app.New(p, loc)
	svc.Keep = keep
	if len(settings.Calendars) > 0 {
		svc.Calendar = calendar.NewICS(settings.Calendars, loc)
	}
	return svc, settings, nil
}
