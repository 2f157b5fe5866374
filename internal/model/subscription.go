package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus enumerates subscription lifecycle states.
type SubscriptionStatus string

const (
	// SubscriptionTrialing is a subscription in its trial period.
	SubscriptionTrialing SubscriptionStatus = "trialing"
	// SubscriptionActive is a subscription in good standing.
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionPastDue is a subscription with a failed payment.
	SubscriptionPastDue SubscriptionStatus = "past_due"
	// SubscriptionCanceled is a canceled subscription.
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// ValidSubscriptionStatus reports whether s is a known lifecycle state.
func ValidSubscriptionStatus(s SubscriptionStatus) bool {
	switch s {
	case SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled:
		return true
	}
	return false
}

// Subscription represents a billing subscription mirrored from the external
// billing system. ExternalID maps one external subscription to at most one
// local record. Records are soft-deleted, never removed.
type Subscription struct {
	ID                 uuid.UUID
	ExternalID         string
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	Amount             float64
	Currency           string
	BillingCycle       string
	LastEventAt        *time.Time
	LastFailureAt      *time.Time
	LastFailureReason  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// UpdateSubscriptionParams contains the fields an applied webhook event may
// change on a subscription. EventAt carries the event's reported timestamp
// and is used as the compare-and-set marker for idempotent application.
type UpdateSubscriptionParams struct {
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	Amount             float64
	Currency           string
	BillingCycle       string
	EventAt            time.Time
	LastFailureAt      *time.Time
	LastFailureReason  string
}

// SubscriptionStore defines persistence operations for subscriptions.
//
// Update must apply params only when the stored record's last applied event
// timestamp is older than params.EventAt, and report whether the write took
// effect. This compare-and-set is what keeps event application idempotent
// under duplicate and out-of-order delivery without cross-request locks.
type SubscriptionStore interface {
	GetByExternalID(ctx context.Context, externalID string) (Subscription, error)
	Create(ctx context.Context, subscription Subscription) (Subscription, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateSubscriptionParams) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID, eventAt time.Time) (bool, error)
}
