package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/modkit/modkit-server/internal/model"
)

var _ model.PlanStore = (*PlanRepository)(nil)

type PlanRepository struct {
	db *Connection
}

func NewPlanRepository(db *Connection) *PlanRepository {
	return &PlanRepository{
		db: db,
	}
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (model.Plan, error) {
	const query = `
		SELECT p.id, p.name, p.amount, p.currency, p.billing_interval,
		       p.stripe_product_id, p.stripe_price_id, p.created_at, p.updated_at
		FROM plans p
		WHERE p.id = $1`

	var plan model.Plan
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID, &plan.Name, &plan.Amount, &plan.Currency, &plan.Interval,
		&plan.StripeProductID, &plan.StripePriceID, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Plan{}, model.ErrNotFound
		}
		return model.Plan{}, err
	}

	return plan, nil
}

func (r *PlanRepository) Create(ctx context.Context, plan model.Plan) (model.Plan, error) {
	const query = `
		INSERT INTO plans (id, name, amount, currency, billing_interval, stripe_product_id, stripe_price_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		plan.ID, plan.Name, plan.Amount, plan.Currency, plan.Interval,
		plan.StripeProductID, plan.StripePriceID,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Plan{}, model.ErrAlreadyExists
		}
		return model.Plan{}, err
	}

	return plan, nil
}
