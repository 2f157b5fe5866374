package model

import (
	"context"
	"time"
)

// Plan represents a locally defined billing plan, optionally linked to a
// product and price created in the external billing system.
type Plan struct {
	ID              string
	Name            string
	Amount          float64
	Currency        string
	Interval        string
	StripeProductID string
	StripePriceID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PlanStore defines persistence operations for plans.
type PlanStore interface {
	GetByID(ctx context.Context, id string) (Plan, error)
	Create(ctx context.Context, plan Plan) (Plan, error)
}

// BillingProvider creates billing objects in the external billing system.
// It is nil-able at the service layer: without a configured provider, plans
// are stored locally only.
type BillingProvider interface {
	CreateProduct(ctx context.Context, name string) (string, error)
	CreatePrice(ctx context.Context, productID string, amount float64, currency, interval string) (string, error)
}
