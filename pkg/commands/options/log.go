package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/log"
)

// LogOptions
type LogOptions struct {
	Verbose bool
	Level   string
}

func AddLogArgs(cmd *cobra.Command, o *LogOptions) {
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Log debug messages.")
	cmd.PersistentFlags().StringVar(&o.Level, "log-level", "",
		"Log level: debug, info, warn or error. Overrides log_level in the config.")
}

// Apply sets the log level. configured is the level from the config file.
func (o *LogOptions) Apply(configured string) {
	level := configured
	if o.Level != "" {
		level = o.Level
	}
	if o.Verbose {
		level = string(log.LevelDebug)
	}
	log.SetLevel(log.ParseLevel(level))
}
