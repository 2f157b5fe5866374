package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modkit/modkit-server/internal/logger"
	"github.com/modkit/modkit-server/internal/model"
)

// ErrMissingSubscriptionID is returned when an event's data object carries no
// subscription identifier. This is the only processing failure surfaced to
// the webhook boundary; the boundary still acknowledges the delivery.
var ErrMissingSubscriptionID = errors.New("event data object missing subscription id")

// Subscription applies verified webhook events to subscription records.
//
// The external billing system is authoritative, so reported statuses are
// taken as-is; legality is enforced through the event-type dispatch below.
// Idempotence under duplicate and out-of-order delivery comes from the
// store's compare-and-set on the record's last applied event timestamp, not
// from locking: applying the same event twice, or an older event after a
// newer one, changes nothing and fires no side effects.
type Subscription struct {
	subscriptions model.SubscriptionStore
	notifier      model.Notifier
	logger        *logger.Logger
}

// NewSubscription creates the subscription state machine. notifier may be
// nil when no downstream side effects are configured.
func NewSubscription(
	subscriptions model.SubscriptionStore,
	notifier model.Notifier,
	logger *logger.Logger,
) *Subscription {
	return &Subscription{
		subscriptions: subscriptions,
		notifier:      notifier,
		logger:        logger,
	}
}

// ProcessEvent dispatches a verified webhook event by type. Unrecognized
// types are logged and ignored: the external system expects every delivered
// event to be acknowledged, handled or not.
func (s *Subscription) ProcessEvent(ctx context.Context, event model.WebhookEvent) error {
	switch event.Type {
	case model.EventSubscriptionCreated:
		return s.handleCreated(ctx, event)
	case model.EventSubscriptionUpdated:
		return s.handleUpdated(ctx, event)
	case model.EventSubscriptionDeleted:
		return s.handleDeleted(ctx, event)
	case model.EventPaymentFailed:
		return s.handlePaymentFailed(ctx, event)
	case model.EventPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, event)
	default:
		s.logger.Info("ignoring unhandled webhook event", "type", event.Type, "event_id", event.ID)
		return nil
	}
}

func (s *Subscription) handleCreated(ctx context.Context, event model.WebhookEvent) error {
	externalID := event.SubscriptionID()
	if externalID == "" {
		return ErrMissingSubscriptionID
	}

	existing, err := s.subscriptions.GetByExternalID(ctx, externalID)
	if err == nil {
		// Redelivered create: treat as update.
		return s.applyEvent(ctx, existing, event)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}

	object := event.Data.Object
	status := model.SubscriptionStatus(object.Status)
	if !model.ValidSubscriptionStatus(status) {
		status = model.SubscriptionActive
	}

	eventAt := time.Unix(event.Created, 0)
	subscription := model.Subscription{
		ID:                 uuid.New(),
		ExternalID:         externalID,
		Status:             status,
		CurrentPeriodStart: time.Unix(object.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(object.CurrentPeriodEnd, 0),
		Amount:             object.Amount,
		Currency:           object.Currency,
		BillingCycle:       object.Interval,
		LastEventAt:        &eventAt,
	}

	created, err := s.subscriptions.Create(ctx, subscription)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			// Lost a concurrent create race; the event is already reflected.
			return nil
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	s.logger.Info("subscription created", "external_id", externalID, "status", created.Status)
	return nil
}

func (s *Subscription) handleUpdated(ctx context.Context, event model.WebhookEvent) error {
	existing, err := s.lookup(ctx, event)
	if err != nil || existing == nil {
		return err
	}
	return s.applyEvent(ctx, *existing, event)
}

func (s *Subscription) handleDeleted(ctx context.Context, event model.WebhookEvent) error {
	existing, err := s.lookup(ctx, event)
	if err != nil || existing == nil {
		return err
	}

	eventAt := time.Unix(event.Created, 0)
	applied, err := s.subscriptions.SoftDelete(ctx, existing.ID, eventAt)
	if err != nil {
		return fmt.Errorf("failed to soft delete subscription: %w", err)
	}
	if !applied {
		return nil
	}

	s.logger.Info("subscription canceled", "external_id", existing.ExternalID)

	updated := *existing
	updated.Status = model.SubscriptionCanceled
	updated.DeletedAt = &eventAt
	s.notify(ctx, updated, existing.Status)
	return nil
}

func (s *Subscription) handlePaymentFailed(ctx context.Context, event model.WebhookEvent) error {
	existing, err := s.lookup(ctx, event)
	if err != nil || existing == nil {
		return err
	}

	eventAt := time.Unix(event.Created, 0)
	params := paramsFrom(*existing, event)
	params.Status = model.SubscriptionPastDue
	params.LastFailureAt = &eventAt
	params.LastFailureReason = event.Data.Object.FailureMessage

	return s.update(ctx, *existing, params)
}

func (s *Subscription) handlePaymentSucceeded(ctx context.Context, event model.WebhookEvent) error {
	existing, err := s.lookup(ctx, event)
	if err != nil || existing == nil {
		return err
	}

	params := paramsFrom(*existing, event)
	// A successful payment recovers a past-due subscription; any other
	// status is left alone, only payment metadata is recorded.
	if existing.Status == model.SubscriptionPastDue {
		params.Status = model.SubscriptionActive
	}
	params.LastFailureAt = nil
	params.LastFailureReason = ""

	return s.update(ctx, *existing, params)
}

// applyEvent sets the subscription to the state the event reports.
func (s *Subscription) applyEvent(ctx context.Context, existing model.Subscription, event model.WebhookEvent) error {
	params := paramsFrom(existing, event)
	if status := model.SubscriptionStatus(event.Data.Object.Status); model.ValidSubscriptionStatus(status) {
		params.Status = status
	}
	return s.update(ctx, existing, params)
}

func (s *Subscription) update(ctx context.Context, existing model.Subscription, params model.UpdateSubscriptionParams) error {
	applied, err := s.subscriptions.Update(ctx, existing.ID, params)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if !applied {
		s.logger.Debug("skipped stale or duplicate event", "external_id", existing.ExternalID)
		return nil
	}

	if params.Status != existing.Status {
		s.logger.Info("subscription status changed",
			"external_id", existing.ExternalID,
			"from", existing.Status,
			"to", params.Status)

		updated := existing
		updated.Status = params.Status
		s.notify(ctx, updated, existing.Status)
	}
	return nil
}

// lookup resolves the event's subscription. A missing id is a data error;
// an unknown subscription on a non-create event is logged and swallowed so
// the external system is not driven into a retry storm.
func (s *Subscription) lookup(ctx context.Context, event model.WebhookEvent) (*model.Subscription, error) {
	externalID := event.SubscriptionID()
	if externalID == "" {
		return nil, ErrMissingSubscriptionID
	}

	existing, err := s.subscriptions.GetByExternalID(ctx, externalID)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("event references unknown subscription",
			"external_id", externalID,
			"type", event.Type)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	return &existing, nil
}

func (s *Subscription) notify(ctx context.Context, subscription model.Subscription, previous model.SubscriptionStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.SubscriptionStatusChanged(ctx, subscription, previous)
}

// paramsFrom seeds update params with the record's current values and lays
// the event's reported fields over them, so partial event objects (invoice
// events carry no period data) never blank out stored fields.
func paramsFrom(existing model.Subscription, event model.WebhookEvent) model.UpdateSubscriptionParams {
	params := model.UpdateSubscriptionParams{
		Status:             existing.Status,
		CurrentPeriodStart: existing.CurrentPeriodStart,
		CurrentPeriodEnd:   existing.CurrentPeriodEnd,
		Amount:             existing.Amount,
		Currency:           existing.Currency,
		BillingCycle:       existing.BillingCycle,
		EventAt:            time.Unix(event.Created, 0),
		LastFailureAt:      existing.LastFailureAt,
		LastFailureReason:  existing.LastFailureReason,
	}

	object := event.Data.Object
	if object.CurrentPeriodStart > 0 {
		params.CurrentPeriodStart = time.Unix(object.CurrentPeriodStart, 0)
	}
	if object.CurrentPeriodEnd > 0 {
		params.CurrentPeriodEnd = time.Unix(object.CurrentPeriodEnd, 0)
	}
	if object.Amount > 0 {
		params.Amount = object.Amount
	}
	if object.Currency != "" {
		params.Currency = object.Currency
	}
	if object.Interval != "" {
		params.BillingCycle = object.Interval
	}
	return params
}
