package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/metrics"
	"tableflip.dev/planner/pkg/runner/serve"
)

func addServe(topLevel *cobra.Command) {
	var (
		metricsAddr string
		rollover    string
		refresh     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep today's planner current in the background",
		Long: `Serve rolls unfinished items over at the start of each day, refreshes
calendar events on a schedule and re-merges today when templates change.
Schedules default to the "rollover" and "refresh" settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, settings, err := openService()
			if err != nil {
				return err
			}
			defer svc.Persistence.Close()
			svc.Metrics = metrics.New()

			s := &serve.Serve{
				App:          svc,
				RolloverSpec: settings.Rollover,
				RefreshSpec:  settings.Refresh,
				MetricsAddr:  settings.MetricsAddr,
				OnListening: func(a net.Addr) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Metrics listening on http://%s/metrics\n", a)
				},
			}
			if cmd.Flags().Changed("rollover") {
				s.RolloverSpec = rollover
			}
			if cmd.Flags().Changed("refresh") {
				s.RefreshSpec = refresh
			}
			if cmd.Flags().Changed("metrics-addr") {
				s.MetricsAddr = metricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.Do(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, for example 127.0.0.1:9090")
	cmd.Flags().StringVar(&rollover, "rollover", "", "cron schedule for rollover; empty disables it")
	cmd.Flags().StringVar(&refresh, "refresh", "", "cron schedule for calendar refresh; empty disables it")
	topLevel.AddCommand(cmd)
}
