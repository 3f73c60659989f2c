// Package serve keeps today's planner current in the background: it rolls
// over at the start of the day, refreshes calendar events on a schedule and
// re-merges when templates change on disk.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/log"
	"tableflip.dev/planner/pkg/store"
)

// Serve runs the planner's scheduled jobs until its context ends.
type Serve struct {
	App *app.Service
	// RolloverSpec and RefreshSpec are standard five-field cron schedules.
	// An empty spec disables the job.
	RolloverSpec string
	RefreshSpec  string

	// MetricsAddr, when set, serves App.Metrics at /metrics.
	MetricsAddr string
	OnListening func(net.Addr)
}

// Do starts the scheduler, the store watch and the metrics endpoint, and
// blocks until ctx is done.
func (s *Serve) Do(ctx context.Context) error {
	if s.App == nil || s.App.Persistence == nil {
		return errors.New("serve requires a planner with persistence")
	}

	c := cron.New(cron.WithLocation(s.App.Location))
	if s.RolloverSpec != "" {
		if _, err := c.AddFunc(s.RolloverSpec, func() { s.rollover(ctx) }); err != nil {
			return fmt.Errorf("serve: rollover schedule %q: %w", s.RolloverSpec, err)
		}
	}
	if s.RefreshSpec != "" {
		if _, err := c.AddFunc(s.RefreshSpec, func() { s.refresh(ctx) }); err != nil {
			return fmt.Errorf("serve: refresh schedule %q: %w", s.RefreshSpec, err)
		}
	}

	events, err := s.App.Watch(ctx)
	if err != nil {
		return err
	}

	var httpSrv *http.Server
	if s.MetricsAddr != "" {
		if s.App.Metrics == nil {
			return errors.New("serve: metrics address set without metrics")
		}
		ln, err := net.Listen("tcp", s.MetricsAddr)
		if err != nil {
			return err
		}
		if s.OnListening != nil {
			s.OnListening(ln.Addr())
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.App.Metrics.Handler())
		httpSrv = &http.Server{Handler: mux}
		go func() {
			if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", err)
			}
		}()
	}

	// Catch up on a missed rollover before the first scheduled run.
	s.rollover(ctx)
	s.refresh(ctx)
	c.Start()
	log.Info("planner serving", "rollover", s.RolloverSpec, "refresh", s.RefreshSpec, "metrics", s.MetricsAddr)

	s.watch(ctx, events)

	<-c.Stop().Done()
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// watch re-merges today whenever templates change, until events closes or
// ctx ends.
func (s *Serve) watch(ctx context.Context, events <-chan store.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				<-ctx.Done()
				return
			}
			log.Debug("store changed", "type", ev.Type, "key", ev.Key)
			if ev.Type == store.EventTemplateChanged || ev.Type == store.EventInvalidated {
				s.refresh(ctx)
			}
		}
	}
}

func (s *Serve) rollover(ctx context.Context) {
	res, err := s.App.Rollover(ctx, s.App.Today())
	if err != nil {
		log.Error("rollover failed", err)
		return
	}
	if !res.Skipped {
		log.Info("rolled over", "today", res.Today, "carried", len(res.Carried), "pruned", len(res.Pruned))
	}
}

func (s *Serve) refresh(ctx context.Context) {
	today := s.App.Today()
	res, err := s.App.Planner(ctx, today)
	if err != nil {
		log.Error("refresh failed", err, "period", today)
		return
	}
	if res.NeedsPersist {
		log.Info("planner refreshed", "period", today, "added", len(res.Added), "removed", len(res.Removed), "changed", len(res.Changed))
	}
}
