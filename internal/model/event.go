package model

import (
	"encoding/json"
	"fmt"
)

// Webhook event types recognized by the subscription state machine. Any other
// type is acknowledged and ignored.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
)

// EventObject is the billing object a webhook event describes. For
// subscription events ID is the external subscription id; invoice events
// reference the subscription through the Subscription field instead.
type EventObject struct {
	ID                 string  `json:"id"`
	Subscription       string  `json:"subscription,omitempty"`
	Status             string  `json:"status,omitempty"`
	CurrentPeriodStart int64   `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   int64   `json:"current_period_end,omitempty"`
	Amount             float64 `json:"amount,omitempty"`
	Currency           string  `json:"currency,omitempty"`
	Interval           string  `json:"interval,omitempty"`
	FailureMessage     string  `json:"failure_message,omitempty"`
}

// WebhookEvent is a verified, parsed webhook delivery. Events are ephemeral:
// verified once, dispatched, discarded.
type WebhookEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

// EventData wraps the event's object, matching the wire shape
// {"data": {"object": {...}}}.
type EventData struct {
	Object EventObject `json:"object"`
}

// SubscriptionID returns the external subscription id the event refers to.
// Invoice events carry it in object.subscription, subscription events in
// object.id.
func (e WebhookEvent) SubscriptionID() string {
	if e.Data.Object.Subscription != "" {
		return e.Data.Object.Subscription
	}
	return e.Data.Object.ID
}

// ParseWebhookEvent decodes a raw webhook payload, validating shape at the
// boundary. It fails only on undecodable JSON or a missing event type; field
// validation specific to each event type belongs to the dispatcher.
func ParseWebhookEvent(raw []byte) (WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if event.Type == "" {
		return WebhookEvent{}, fmt.Errorf("webhook payload missing event type")
	}
	return event, nil
}
