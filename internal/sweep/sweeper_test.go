package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
	"github.com/T44VI/raittiusseuranhakubot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepRepo struct {
	store.Repository

	listCalls int
	expired   []*domain.Activity
	deleted   []string
}

func (r *sweepRepo) ListExpired(_ context.Context, _ time.Time) ([]*domain.Activity, error) {
	r.listCalls++
	return r.expired, nil
}

func (r *sweepRepo) DeleteActivity(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	remaining := r.expired[:0]
	for _, act := range r.expired {
		if act.ID != id {
			remaining = append(remaining, act)
		}
	}
	r.expired = remaining
	return nil
}

type retractChannel struct {
	retracted []string
}

func (c *retractChannel) Send(_ context.Context, _, _ string) (string, error) { return "", nil }

func (c *retractChannel) Delete(_ context.Context, _ string, ref string) error {
	c.retracted = append(c.retracted, ref)
	return nil
}

func TestSweepDeletesAndRetracts(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &sweepRepo{expired: []*domain.Activity{
		{ID: "a1", AnnounceRef: "ref-1", EndsAt: now.Add(-time.Minute)},
		{ID: "a2", EndsAt: now.Add(-time.Hour)},
	}}
	ch := &retractChannel{}
	s := New(repo, ch, time.Minute)
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Sweep(context.Background()))

	assert.Equal(t, []string{"a1", "a2"}, repo.deleted)
	assert.Equal(t, []string{"ref-1"}, ch.retracted, "only announced activities get a retraction")
}

func TestSweepHonorsCooldown(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &sweepRepo{}
	s := New(repo, &retractChannel{}, time.Minute)
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Sweep(context.Background()))
	require.NoError(t, s.Sweep(context.Background()))
	assert.Equal(t, 1, repo.listCalls, "second call inside the window is a no-op")

	now = now.Add(59 * time.Second)
	require.NoError(t, s.Sweep(context.Background()))
	assert.Equal(t, 1, repo.listCalls)

	now = now.Add(time.Second)
	require.NoError(t, s.Sweep(context.Background()))
	assert.Equal(t, 2, repo.listCalls, "call after the window sweeps again")
}

func TestSweepRetractsEachAnnouncementOnce(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &sweepRepo{expired: []*domain.Activity{
		{ID: "a1", AnnounceRef: "ref-1", EndsAt: now.Add(-time.Minute)},
	}}
	ch := &retractChannel{}
	s := New(repo, ch, time.Minute)
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Sweep(context.Background()))
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Sweep(context.Background()))

	assert.Equal(t, []string{"ref-1"}, ch.retracted)
}
