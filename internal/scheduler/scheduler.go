// Package scheduler runs the daily ability recompute for every known owner.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/activity"
)

// DefaultSchedule fires once a day at 03:00.
const DefaultSchedule = "0 3 * * *"

// OwnerLister enumerates owners with stored activity.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]activity.OwnerID, error)
}

// Recomputer recomputes one owner's ability scores.
type Recomputer interface {
	Recompute(ctx context.Context, owner activity.OwnerID, now time.Time) (ability.State, error)
}

// RunResult summarises one pass over all owners.
type RunResult struct {
	Owners int
	Failed int
}

// cronParser accepts standard 5-field expressions, an optional seconds
// field and descriptors such as @daily.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler triggers recomputes on a cron schedule.
type Scheduler struct {
	owners      OwnerLister
	engine      Recomputer
	schedule    string
	concurrency int
	cron        *cron.Cron
	now         func() time.Time
	running     atomic.Bool
}

// New creates a Scheduler. An empty schedule uses DefaultSchedule; a
// non-positive concurrency uses 4.
func New(owners OwnerLister, engine Recomputer, schedule string, concurrency int) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Scheduler{
		owners:      owners,
		engine:      engine,
		schedule:    schedule,
		concurrency: concurrency,
		cron:        cron.New(cron.WithParser(cronParser)),
		now:         time.Now,
	}, nil
}

// Start registers the recompute job and starts the cron ticker. Runs use ctx
// and stop when it is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if !s.running.CompareAndSwap(false, true) {
			slog.Warn("previous recompute still running, skipping")
			return
		}
		defer s.running.Store(false)

		res, err := s.RunOnce(ctx, s.now())
		if err != nil {
			slog.Error("scheduled recompute failed", "error", err)
			return
		}
		slog.Info("scheduled recompute finished", "owners", res.Owners, "failed", res.Failed)
	})
	if err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}
	s.cron.Start()
	slog.Info("recompute scheduled", "schedule", s.schedule, "concurrency", s.concurrency)
	return nil
}

// Stop stops the ticker and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce recomputes every owner exactly once at now. Per-owner failures are
// logged and counted; only failing to list owners is returned.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (RunResult, error) {
	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("list owners: %w", err)
	}

	seen := make(map[activity.OwnerID]bool, len(owners))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, owner := range owners {
		if !owner.Valid() || seen[owner] {
			continue
		}
		seen[owner] = true

		g.Go(func() error {
			if _, err := s.engine.Recompute(gctx, owner, now); err != nil {
				failed.Add(1)
				slog.Warn("recompute failed", "owner", owner, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunResult{}, err
	}

	return RunResult{Owners: len(seen), Failed: int(failed.Load())}, nil
}
