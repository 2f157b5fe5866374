package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/modkit/modkit-server/internal/model"
)

var _ model.SubscriptionStore = (*SubscriptionRepository)(nil)

const uniqueViolation = "23505"

type SubscriptionRepository struct {
	db *Connection
}

func NewSubscriptionRepository(db *Connection) *SubscriptionRepository {
	return &SubscriptionRepository{
		db: db,
	}
}

// GetByExternalID returns the subscription mirroring an external billing
// record. Soft-deleted rows are returned too: replayed delete events must
// still resolve their target to no-op instead of recreating state.
func (r *SubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (model.Subscription, error) {
	const query = `
		SELECT s.id, s.external_id, s.status, s.current_period_start, s.current_period_end,
		       s.amount, s.currency, s.billing_cycle, s.last_event_at,
		       s.last_failure_at, s.last_failure_reason, s.created_at, s.updated_at, s.deleted_at
		FROM subscriptions s
		WHERE s.external_id = $1`

	var subscription model.Subscription
	err := r.db.QueryRow(ctx, query, externalID).Scan(
		&subscription.ID, &subscription.ExternalID, &subscription.Status,
		&subscription.CurrentPeriodStart, &subscription.CurrentPeriodEnd,
		&subscription.Amount, &subscription.Currency, &subscription.BillingCycle,
		&subscription.LastEventAt, &subscription.LastFailureAt, &subscription.LastFailureReason,
		&subscription.CreatedAt, &subscription.UpdatedAt, &subscription.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{}, model.ErrNotFound
		}
		return model.Subscription{}, err
	}

	return subscription, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, subscription model.Subscription) (model.Subscription, error) {
	const query = `
		INSERT INTO subscriptions (id, external_id, status, current_period_start, current_period_end,
		                           amount, currency, billing_cycle, last_event_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		subscription.ID, subscription.ExternalID, string(subscription.Status),
		subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd,
		subscription.Amount, subscription.Currency, subscription.BillingCycle,
		subscription.LastEventAt,
	).Scan(&subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Subscription{}, model.ErrAlreadyExists
		}
		return model.Subscription{}, err
	}

	return subscription, nil
}

// Update applies params only when the stored record has not yet seen an
// event at or after params.EventAt. The guard runs inside the UPDATE itself,
// so concurrent and out-of-order deliveries resolve without locks; the
// returned bool reports whether the write took effect.
func (r *SubscriptionRepository) Update(ctx context.Context, id uuid.UUID, params model.UpdateSubscriptionParams) (bool, error) {
	const query = `
		UPDATE subscriptions
		SET status = $2, current_period_start = $3, current_period_end = $4,
		    amount = $5, currency = $6, billing_cycle = $7,
		    last_event_at = $8, last_failure_at = $9, last_failure_reason = $10,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		  AND (last_event_at IS NULL OR last_event_at < $8)`

	cmd, err := r.db.Exec(ctx, query,
		id, string(params.Status), params.CurrentPeriodStart, params.CurrentPeriodEnd,
		params.Amount, params.Currency, params.BillingCycle,
		params.EventAt, params.LastFailureAt, params.LastFailureReason,
	)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() > 0, nil
}

// SoftDelete cancels a subscription and stamps deleted_at, keeping the row
// for audit. Repeated deletes report false.
func (r *SubscriptionRepository) SoftDelete(ctx context.Context, id uuid.UUID, eventAt time.Time) (bool, error) {
	const query = `
		UPDATE subscriptions
		SET status = $2, deleted_at = NOW(), last_event_at = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	cmd, err := r.db.Exec(ctx, query, id, string(model.SubscriptionCanceled), eventAt)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() > 0, nil
}
