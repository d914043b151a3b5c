package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
)

// CachePurger drops expired cache entries and reports how many were removed.
type CachePurger interface {
	PurgeCache(now time.Time) int
}

type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	purger   CachePurger
	interval time.Duration
	log      *slog.Logger
}

func New(
	ctx context.Context,
	purger CachePurger,
	interval time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:      ctx,
		cron:     c,
		purger:   purger,
		interval: interval,
		log:      log,
	}
}

func (s *Scheduler) Spec() string {
	return fmt.Sprintf("@every %s", s.interval)
}

func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("interval must be positive (got %s)", s.interval)
	}

	if _, err := s.cron.AddFunc(s.Spec(), s.purgeCache); err != nil {
		return fmt.Errorf("add func: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeCache() {
	select {
	case <-s.ctx.Done():
		s.log.InfoContext(s.ctx, "Scheduler context is done",
			"error", s.ctx.Err())
		return
	default:
	}

	removed := s.purger.PurgeCache(time.Now())

	s.log.DebugContext(s.ctx, "Cache is swept",
		"removed", removed,
		"spec", s.Spec())
}
