package model

import "context"

// Notifier receives downstream side effects of subscription transitions
// (e.g. customer emails). The state machine fires it at most once per applied
// event; duplicate and stale deliveries never reach it.
type Notifier interface {
	SubscriptionStatusChanged(ctx context.Context, subscription Subscription, previous SubscriptionStatus)
}
