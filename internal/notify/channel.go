// Package notify delivers board announcements and direct user messages.
package notify

import "context"

// Broadcast is the recipient for channel-wide announcements.
const Broadcast = "broadcast"

// Channel delivers text to a recipient and can later retract a delivered
// message by reference. Delivery is best-effort: callers must not fail
// their own operation because a Send or Delete failed.
type Channel interface {
	// Send delivers text to the recipient and returns a message reference.
	Send(ctx context.Context, recipient, text string) (string, error)

	// Delete retracts a previously sent message.
	Delete(ctx context.Context, recipient, ref string) error
}
