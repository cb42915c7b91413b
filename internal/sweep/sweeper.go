// Package sweep retires activities whose time window has closed.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/notify"
	"github.com/T44VI/raittiusseuranhakubot/internal/store"
)

// Sweeper lazily deletes expired activities and retracts their
// announcements. It is invoked as a prelude to every read path rather
// than from a background timer, so tests can control the clock.
type Sweeper struct {
	repo     store.Repository
	channel  notify.Channel
	cooldown time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// New creates a Sweeper. Real work happens at most once per cooldown
// window; calls inside the window return immediately.
func New(repo store.Repository, channel notify.Channel, cooldown time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		channel:  channel,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

// Sweep deletes every activity whose end time has passed and retracts
// the associated announcement, if any. Inside the cooldown window it is
// a no-op. The cooldown bounds write amplification only; callers still
// filter expired entries out of read results themselves if they need
// staleness below one cooldown interval.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	s.mu.Lock()
	if now.Sub(s.lastRun) < s.cooldown {
		s.mu.Unlock()
		return nil
	}
	s.lastRun = now
	s.mu.Unlock()

	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	slog.Info("Sweeping expired activities", "count", len(expired))

	for _, act := range expired {
		if err := s.repo.DeleteActivity(ctx, act.ID); err != nil {
			slog.Warn("Failed to delete expired activity", "error", err, "activity_id", act.ID)
			continue
		}
		if act.AnnounceRef != "" {
			if err := s.channel.Delete(ctx, notify.Broadcast, act.AnnounceRef); err != nil {
				slog.Warn("Failed to retract announcement", "error", err, "activity_id", act.ID)
			}
		}
	}

	return nil
}
