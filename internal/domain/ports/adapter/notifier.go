package adapter

import "context"

// Notifier publishes an event to a user's channel on the pub/sub collaborator.
// Callers treat it as best-effort: an error is logged, never returned to the
// client.
type Notifier interface {
	Publish(ctx context.Context, userID, event string, payload any) error
}
