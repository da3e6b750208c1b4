package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"necessities/swap/internal/events"
	"necessities/swap/internal/models"
)

// PendingCounter reports how many items wait for moderation.
type PendingCounter interface {
	CountByStatus(ctx context.Context, status models.ItemStatus) (int64, error)
}

// Scheduler runs the periodic moderation backlog check.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	items     PendingCounter
	publisher events.Publisher
	log       zerolog.Logger
	timeout   time.Duration
}

func NewScheduler(schedule string, items PendingCounter, publisher events.Publisher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		schedule:  schedule,
		items:     items,
		publisher: publisher,
		log:       log,
		timeout:   30 * time.Second,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.log.Info().Msg("backlog reminder disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.remindBacklog); err != nil {
		return fmt.Errorf("schedule backlog reminder %q: %w", s.schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) remindBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.CheckBacklog(ctx); err != nil {
		s.log.Error().Err(err).Msg("backlog reminder failed")
	}
}

// CheckBacklog publishes a moderation.backlog event when items are pending
// and returns the count.
func (s *Scheduler) CheckBacklog(ctx context.Context) (int64, error) {
	pending, err := s.items.CountByStatus(ctx, models.ItemStatusPending)
	if err != nil {
		return 0, fmt.Errorf("count pending items: %w", err)
	}
	if pending == 0 {
		return 0, nil
	}
	if err := s.publisher.Publish(ctx, events.Event{
		Type:    events.ModerationBacklog,
		Pending: pending,
		At:      time.Now().UTC(),
	}); err != nil {
		return pending, err
	}
	s.log.Info().Int64("pending", pending).Msg("moderation backlog reminder queued")
	return pending, nil
}
