package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modkit/modkit-server/internal/logger"
	"github.com/modkit/modkit-server/internal/model"
)

// ErrInvalidPlan is returned when a plan is missing required fields.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan manages locally defined billing plans and their linkage to the
// external billing system.
type Plan struct {
	plans   model.PlanStore
	billing model.BillingProvider
	logger  *logger.Logger
}

// NewPlan creates the plan service. billing may be nil; plans are then
// stored locally without remote product or price objects.
func NewPlan(plans model.PlanStore, billing model.BillingProvider, logger *logger.Logger) *Plan {
	return &Plan{
		plans:   plans,
		billing: billing,
		logger:  logger,
	}
}

// CreatePlan stores a new plan. When a billing provider is configured, the
// remote product and price are created first and their ids attached, so a
// stored plan is never missing its remote linkage. Creating a plan whose id
// already exists fails with model.ErrAlreadyExists.
func (s *Plan) CreatePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
	if plan.ID == "" || plan.Name == "" || plan.Currency == "" || plan.Interval == "" || plan.Amount <= 0 {
		return model.Plan{}, ErrInvalidPlan
	}

	_, err := s.plans.GetByID(ctx, plan.ID)
	if err == nil {
		return model.Plan{}, fmt.Errorf("plan %q: %w", plan.ID, model.ErrAlreadyExists)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Plan{}, fmt.Errorf("failed to look up plan: %w", err)
	}

	if s.billing != nil {
		productID, err := s.billing.CreateProduct(ctx, plan.Name)
		if err != nil {
			return model.Plan{}, fmt.Errorf("failed to create billing product: %w", err)
		}
		priceID, err := s.billing.CreatePrice(ctx, productID, plan.Amount, plan.Currency, plan.Interval)
		if err != nil {
			return model.Plan{}, fmt.Errorf("failed to create billing price: %w", err)
		}
		plan.StripeProductID = productID
		plan.StripePriceID = priceID
	}

	created, err := s.plans.Create(ctx, plan)
	if err != nil {
		return model.Plan{}, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info("plan created", "plan_id", created.ID, "price_id", created.StripePriceID)
	return created, nil
}

// GetPlan returns a plan by id.
func (s *Plan) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return model.Plan{}, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}
