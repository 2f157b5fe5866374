package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modkit/modkit-server/internal/logger"
	"github.com/modkit/modkit-server/internal/model"
)

// PlanService defines plan management operations.
type PlanService interface {
	CreatePlan(ctx context.Context, plan model.Plan) (model.Plan, error)
	GetPlan(ctx context.Context, id string) (model.Plan, error)
}

type planRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
}

type planResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Interval        string  `json:"interval"`
	StripeProductID string  `json:"stripe_product_id,omitempty"`
	StripePriceID   string  `json:"stripe_price_id,omitempty"`
}

// Plan handles plan management endpoints.
type Plan struct {
	service PlanService
	logger  *logger.Logger
}

// NewPlan creates a new Plan handler.
func NewPlan(service PlanService, logger *logger.Logger) *Plan {
	return &Plan{service: service, logger: logger}
}

// Create handles POST /plans.
func (h *Plan) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.service.CreatePlan(r.Context(), model.Plan{
		ID:       req.ID,
		Name:     req.Name,
		Amount:   req.Amount,
		Currency: req.Currency,
		Interval: req.Interval,
	})
	if err != nil {
		h.logger.Error("failed to create plan", "plan_id", req.ID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlanResponse(created))
}

// Get handles GET /plans/{id}.
func (h *Plan) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func toPlanResponse(plan model.Plan) planResponse {
	return planResponse{
		ID:              plan.ID,
		Name:            plan.Name,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		Interval:        plan.Interval,
		StripeProductID: plan.StripeProductID,
		StripePriceID:   plan.StripePriceID,
	}
}
