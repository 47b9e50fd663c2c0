// Package notify dispatches end-of-shift report emails. Delivery is best
// effort: the submit path logs failures and never blocks on them.
package notify

import (
	"context"

	eosr "plantpulse/internal/eosr/domain"
)

// Notifier delivers one report notification.
type Notifier interface {
	Notify(ctx context.Context, report eosr.Report) error
}

// NopNotifier drops notifications. Used when no mail key is configured.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(ctx context.Context, report eosr.Report) error { return nil }
