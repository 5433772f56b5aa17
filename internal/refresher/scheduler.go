package refresher

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
)

// Scheduler runs refresh sweeps on a fixed interval.
type Scheduler struct {
	cron      *cron.Cron
	refresher *Refresher
	log       *slog.Logger

	refreshEntryID cron.EntryID
}

// NewScheduler creates a Scheduler that sweeps every interval.
func NewScheduler(r *Refresher, interval time.Duration, log *slog.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:      c,
		refresher: r,
		log:       log,
	}

	id, err := c.AddFunc("@every "+interval.String(), s.runRefresh)
	if err != nil {
		return nil, err
	}
	s.refreshEntryID = id

	return s, nil
}

// Start begins running scheduled sweeps.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
	s.SyncNextRunTimestamp()
}

// Stop gracefully stops the scheduler, waiting for a running sweep to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// SyncNextRunTimestamp publishes the next sweep time. Cron only knows it
// once started.
func (s *Scheduler) SyncNextRunTimestamp() {
	next := s.cron.Entry(s.refreshEntryID).Next
	if next.IsZero() {
		return
	}
	metrics.RefreshNextRunTimestamp.Set(float64(next.Unix()))
}

func (s *Scheduler) runRefresh() {
	defer s.SyncNextRunTimestamp()

	ctx := context.Background()
	s.log.Info("scheduled refresh starting")
	if _, err := s.refresher.RunOnce(ctx); err != nil {
		s.log.Error("scheduled refresh failed", "error", err)
	}
}
