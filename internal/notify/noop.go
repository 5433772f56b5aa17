package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier logs failures instead of delivering them. It is used when no
// webhook is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that only logs.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// NotifyRefreshFailures logs each failure at debug level.
func (n *NoOpNotifier) NotifyRefreshFailures(_ context.Context, failures []RefreshFailure) error {
	for i := range failures {
		n.log.Debug("notification discarded (no webhook configured)",
			"profile", failures[i].Profile,
			"reauth", failures[i].Reauth,
		)
	}
	return nil
}
