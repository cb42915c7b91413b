// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
)

// Repository defines the interface for persisting activities and the
// admin allow-list / block deny-list.
//
// Lookups that find nothing return (nil, nil); a missing activity is a
// normal outcome for callers, not an error.
type Repository interface {
	// ListActivities retrieves every stored activity.
	ListActivities(ctx context.Context) ([]*domain.Activity, error)

	// ListByCategory retrieves activities in the given category.
	ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Activity, error)

	// ListByHost retrieves activities hosted by the given user.
	ListByHost(ctx context.Context, hostID string) ([]*domain.Activity, error)

	// ListExpired retrieves activities whose end time is before the cutoff.
	ListExpired(ctx context.Context, before time.Time) ([]*domain.Activity, error)

	// GetActivity retrieves a single activity by ID.
	GetActivity(ctx context.Context, id string) (*domain.Activity, error)

	// InsertActivity stores a new activity. The ID must be unique among
	// stored activities.
	InsertActivity(ctx context.Context, act *domain.Activity) error

	// DeleteActivity removes an activity. Deleting a missing ID is a no-op.
	DeleteActivity(ctx context.Context, id string) error

	// SetAnnounceRef records the broadcast message reference for an activity.
	SetAnnounceRef(ctx context.Context, id, ref string) error

	// IsAdmin reports whether the user is on the admin allow-list.
	IsAdmin(ctx context.Context, userID string) (bool, error)

	// AddAdmin adds a user to the admin allow-list. Idempotent.
	AddAdmin(ctx context.Context, userID, handle string) error

	// RemoveAdmin removes a user from the admin allow-list.
	RemoveAdmin(ctx context.Context, userID string) error

	// IsBlocked reports whether the user is on the block deny-list.
	IsBlocked(ctx context.Context, userID string) (bool, error)

	// AddBlock adds a user to the block deny-list. Idempotent.
	AddBlock(ctx context.Context, userID, handle string) error

	// RemoveBlock removes a user from the block deny-list.
	RemoveBlock(ctx context.Context, userID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
