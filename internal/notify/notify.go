// Package notify defines the outbound-event abstraction handlers depend on.
// Handlers submit fire-and-forget jobs through this interface and never see
// the queue client, which keeps them testable with a fake collaborator.
package notify

import "context"

// Notifier submits best-effort notification jobs. Implementations must be
// safe for concurrent use. Delivery is at-least-once with bounded retry on
// the consuming side; ordering between notifications is not guaranteed, and
// a failed submission must never fail the request that triggered it.
type Notifier interface {
	// Notify relays a text message to the given Telegram thread.
	Notify(ctx context.Context, text string, threadID int64) error
	// NotifyVisit relays the stored voice attachment of a visit report.
	NotifyVisit(ctx context.Context, visitID uint64) error
}
