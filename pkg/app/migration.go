package app

import (
	"context"
	"fmt"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/log"
	"tableflip.dev/planner/pkg/planner"
	"tableflip.dev/planner/pkg/timeutil"
)

// RolloverMetaKey holds the last period a rollover ran for.
const RolloverMetaKey = "rollover"

// RolloverResult reports what a rollover did.
type RolloverResult struct {
	Today string
	// From is the period unfinished items were carried from, if any.
	From    string
	Carried []string
	Pruned  []string
	// Skipped is set when today was already rolled over.
	Skipped bool
}

// Rollover carries unfinished items from the most recent earlier period into
// today and prunes periods older than the retention window. It runs at most
// once per day.
func (s *Service) Rollover(ctx context.Context, today string) (RolloverResult, error) {
	res := RolloverResult{Today: today}
	if s.Persistence == nil {
		return res, ErrNoPersistence
	}
	if _, err := timeutil.ParseDatestamp(today, s.loc()); err != nil {
		return res, err
	}
	last, ok, err := s.Persistence.Meta(ctx, RolloverMetaKey)
	if err != nil {
		return res, err
	}
	if ok && last >= today {
		res.Skipped = true
		return res, nil
	}

	periods, err := s.Persistence.Periods(ctx)
	if err != nil {
		return res, err
	}
	for _, p := range periods {
		if p < today {
			res.From = p
		}
	}

	if res.From != "" {
		past, err := s.Persistence.Load(ctx, res.From)
		if err != nil {
			return res, fmt.Errorf("app: load %s: %w", res.From, err)
		}
		migrated := planner.MigrateIncomplete(past, today)
		err = s.update(ctx, today, func(events []entry.PlannerEvent) ([]entry.PlannerEvent, error) {
			out, rebalanced, err := planner.InsertCarryover(events, migrated)
			if err != nil {
				return nil, err
			}
			if rebalanced && s.Metrics != nil {
				s.Metrics.Rebalances.Inc()
			}
			return out, nil
		})
		if err != nil {
			return res, err
		}
		for _, e := range migrated {
			res.Carried = append(res.Carried, e.ID)
		}
		if s.Metrics != nil {
			s.Metrics.Carryover.Add(float64(len(migrated)))
		}
	}

	pruned, err := s.prune(ctx, today, periods)
	if err != nil {
		return res, err
	}
	res.Pruned = pruned

	if err := s.Persistence.SetMeta(ctx, RolloverMetaKey, today); err != nil {
		return res, err
	}
	log.Info("rollover complete", "today", today, "from", res.From, "carried", len(res.Carried), "pruned", len(res.Pruned))
	return res, nil
}

func (s *Service) prune(ctx context.Context, today string, periods []string) ([]string, error) {
	if s.Keep <= 0 {
		return nil, nil
	}
	cutoff, err := timeutil.Cutoff(today, s.Keep)
	if err != nil {
		return nil, err
	}
	var pruned []string
	for _, p := range periods {
		if p >= cutoff {
			continue
		}
		if err := s.Persistence.DeletePeriod(ctx, p); err != nil {
			return pruned, fmt.Errorf("app: prune %s: %w", p, err)
		}
		pruned = append(pruned, p)
	}
	return pruned, nil
}
