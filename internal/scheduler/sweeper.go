package scheduler

import (
	"context"
	"log/slog"
	"time"

	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/config"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"
)

// CandidateSource lists booked reservations whose window has elapsed.
type CandidateSource interface {
	ListElapsedBooked(ctx context.Context, today, nowClock string, limit int32) ([]queries.SweepCandidate, error)
}

type SweepReport struct {
	Processed   int
	Failed      int
	NoOps       int
	CardsIssued int
}

// Sweeper periodically completes elapsed reservations as the system actor.
// Each candidate is handled independently: one failure is logged and counted,
// never aborts the run.
type Sweeper struct {
	source  CandidateSource
	cmds    commands.ReservationCommands
	clock   clock.Clock
	cfg     config.SchedulerConfig
	metrics *Metrics
}

func NewSweeper(
	source CandidateSource,
	cmds commands.ReservationCommands,
	clk clock.Clock,
	cfg config.SchedulerConfig,
	metrics *Metrics,
) *Sweeper {
	return &Sweeper{
		source:  source,
		cmds:    cmds,
		clock:   clk,
		cfg:     cfg,
		metrics: metrics,
	}
}

// Run blocks until ctx is cancelled. The first sweep runs after StartDelay so
// the server finishes starting up before the database sees batch traffic.
func (s *Sweeper) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.StartDelay):
	}
	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) SweepReport {
	started := s.clock.Now()
	today := started.Format("2006-01-02")
	nowClock := started.Format("15:04")

	var report SweepReport

	candidates, err := s.source.ListElapsedBooked(ctx, today, nowClock, int32(s.cfg.BatchLimit))
	if err != nil {
		slog.ErrorContext(ctx, "sweep failed to list elapsed reservations", "error", err)
		return report
	}

	for _, c := range candidates {
		result, err := s.cmds.Complete(ctx, c.ID, commands.SystemActor)
		if err != nil {
			report.Failed++
			slog.ErrorContext(ctx, "sweep failed to complete reservation",
				"reservation_id", c.ID,
				"resource_id", c.ResourceID,
				"holder_id", c.HolderID,
				"error", err)
			continue
		}
		report.Processed++
		if result.NoOp {
			report.NoOps++
		}
		if result.Loyalty != nil {
			report.CardsIssued += len(result.Loyalty.NewCards)
		}
	}

	s.record(report, time.Since(started))
	slog.InfoContext(ctx, "sweep finished",
		"candidates", len(candidates),
		"processed", report.Processed,
		"failed", report.Failed,
		"noops", report.NoOps,
		"cards_issued", report.CardsIssued)
	return report
}

func (s *Sweeper) record(report SweepReport, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Runs.Inc()
	s.metrics.Completed.Add(float64(report.Processed))
	s.metrics.Failures.Add(float64(report.Failed))
	s.metrics.CardsIssued.Add(float64(report.CardsIssued))
	s.metrics.Duration.Observe(elapsed.Seconds())
}
