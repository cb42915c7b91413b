// Package access gates privileged and excluded identities.
package access

import (
	"context"
	"log/slog"

	"github.com/T44VI/raittiusseuranhakubot/internal/store"
)

// Checker answers privilege and exclusion questions against the
// repository. Both checks default to the safer outcome on lookup
// failure: an unknown user is neither admin nor blocked.
type Checker struct {
	repo store.Repository
}

// NewChecker creates a Checker backed by the given repository.
func NewChecker(repo store.Repository) *Checker {
	return &Checker{repo: repo}
}

// IsAdmin reports whether the user is on the admin allow-list.
func (c *Checker) IsAdmin(ctx context.Context, userID string) bool {
	ok, err := c.repo.IsAdmin(ctx, userID)
	if err != nil {
		slog.Warn("admin lookup failed", "error", err, "user_id", userID)
		return false
	}
	return ok
}

// IsBlocked reports whether the user is on the block deny-list.
func (c *Checker) IsBlocked(ctx context.Context, userID string) bool {
	ok, err := c.repo.IsBlocked(ctx, userID)
	if err != nil {
		slog.Warn("block lookup failed", "error", err, "user_id", userID)
		return false
	}
	return ok
}

// Grant adds a user to the admin allow-list.
func (c *Checker) Grant(ctx context.Context, userID, handle string) error {
	return c.repo.AddAdmin(ctx, userID, handle)
}

// Revoke removes a user from the admin allow-list.
func (c *Checker) Revoke(ctx context.Context, userID string) error {
	return c.repo.RemoveAdmin(ctx, userID)
}

// Block adds a user to the block deny-list.
func (c *Checker) Block(ctx context.Context, userID, handle string) error {
	return c.repo.AddBlock(ctx, userID, handle)
}

// Unblock removes a user from the block deny-list.
func (c *Checker) Unblock(ctx context.Context, userID string) error {
	return c.repo.RemoveBlock(ctx, userID)
}
