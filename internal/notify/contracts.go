// Package notify delivers short text messages to people by their external
// contact id. Delivery is best effort: callers hand a message over and never
// wait for the outside system.
package notify

import "context"

// Notifier sends one message to one contact.
type Notifier interface {
	Notify(ctx context.Context, externalID, message string) error
}

type counter interface {
	Inc()
}

type publisher interface {
	Publish(ctx context.Context, externalID, message string) error
}

// Result labels for the notifications counter.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)
