// Package domain contains core domain types for the activity board.
package domain

import (
	"fmt"
	"time"
)

// Activity is a committed, time-boxed activity visible on the board.
type Activity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HostID      string    `json:"host_id"`
	HostHandle  string    `json:"host_handle"`
	Category    Category  `json:"category"`
	EndsAt      time.Time `json:"ends_at"`
	AnnounceRef string    `json:"announce_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the activity's time window has closed.
func (a *Activity) Expired(now time.Time) bool {
	return !now.Before(a.EndsAt)
}

// TimeLeft returns the remaining duration, floored at zero.
func (a *Activity) TimeLeft(now time.Time) time.Duration {
	left := a.EndsAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// TimeLeftLabel renders the remaining time for menu buttons,
// e.g. "1h 20min" or "45min".
func (a *Activity) TimeLeftLabel(now time.Time) string {
	minutes := int(a.TimeLeft(now).Minutes())
	if minutes > 60 {
		return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dmin", minutes)
}

// EndClock formats the end time as a 24-hour wall clock, e.g. "17:05".
func (a *Activity) EndClock() string {
	return a.EndsAt.Format("15:04")
}
