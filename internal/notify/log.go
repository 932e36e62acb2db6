package notify

import (
	"context"

	"github.com/y0lz/backend-json/internal/logx"
)

// LogNotifier only logs messages. Used when no transport is configured.
type LogNotifier struct {
	logger logx.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier(logger logx.Logger) *LogNotifier {
	if logger == nil {
		logger = logx.Nop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, externalID, message string) error {
	n.logger.Info("notification",
		logx.Event("notification_logged"),
		logx.String("external_contact_id", externalID),
		logx.String("message", message),
	)
	return nil
}
