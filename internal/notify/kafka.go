package notify

import "context"

// KafkaNotifier hands messages to the notifications topic; the chat bot
// consumes it and talks to the person.
type KafkaNotifier struct {
	p publisher
}

// NewKafkaNotifier wraps a topic publisher.
func NewKafkaNotifier(p publisher) *KafkaNotifier {
	return &KafkaNotifier{p: p}
}

// Notify implements Notifier.
func (n *KafkaNotifier) Notify(ctx context.Context, externalID, message string) error {
	return n.p.Publish(ctx, externalID, message)
}
