// Package notify delivers alerts about tokens the keep-alive loop could not
// refresh.
package notify

import (
	"context"
	"time"
)

// RefreshFailure describes one profile whose refresh failed.
type RefreshFailure struct {
	Profile string
	UserID  string
	Expiry  time.Time
	Error   string
	// Reauth is set when Etsy rejected the refresh token itself, so only a
	// new `auth login` can recover the profile.
	Reauth bool
}

// Notifier sends refresh failure alerts.
type Notifier interface {
	NotifyRefreshFailures(ctx context.Context, failures []RefreshFailure) error
}
