package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/modkit/modkit-server/internal/mocks"
	"github.com/modkit/modkit-server/internal/model"
	"github.com/modkit/modkit-server/internal/testutil"
)

func subscriptionEvent(eventType, externalID string, created int64, object model.EventObject) model.WebhookEvent {
	if object.ID == "" {
		object.ID = externalID
	}
	return model.WebhookEvent{
		ID:      "evt_" + uuid.NewString(),
		Type:    eventType,
		Created: created,
		Data:    model.EventData{Object: object},
	}
}

func TestSubscription_ProcessEvent_Created_New(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	log := testutil.MakeNoopLogger()

	store.On("GetByExternalID", mock.Anything, "sub_1").Return(model.Subscription{}, model.ErrNotFound)
	store.On("Create", mock.Anything, mock.MatchedBy(func(s model.Subscription) bool {
		return s.ExternalID == "sub_1" &&
			s.Status == model.SubscriptionTrialing &&
			s.Currency == "usd" &&
			s.LastEventAt != nil && s.LastEventAt.Unix() == 1_700_000_000
	})).Return(model.Subscription{ExternalID: "sub_1", Status: model.SubscriptionTrialing}, nil)

	s := NewSubscription(store, nil, log)
	event := subscriptionEvent(model.EventSubscriptionCreated, "sub_1", 1_700_000_000, model.EventObject{
		Status:   "trialing",
		Amount:   29.99,
		Currency: "usd",
		Interval: "month",
	})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertExpectations(t)
}

func TestSubscription_ProcessEvent_Created_UnknownStatusDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}

	store.On("GetByExternalID", mock.Anything, "sub_1").Return(model.Subscription{}, model.ErrNotFound)
	store.On("Create", mock.Anything, mock.MatchedBy(func(s model.Subscription) bool {
		return s.Status == model.SubscriptionActive
	})).Return(model.Subscription{}, nil)

	s := NewSubscription(store, nil, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionCreated, "sub_1", 1_700_000_000, model.EventObject{Status: "incomplete"})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertExpectations(t)
}

func TestSubscription_ProcessEvent_Created_Existing_IsIdempotentUpdate(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	id := uuid.New()

	store.On("GetByExternalID", mock.Anything, "sub_1").
		Return(model.Subscription{ID: id, ExternalID: "sub_1", Status: model.SubscriptionActive}, nil)
	store.On("Update", mock.Anything, id, mock.Anything).Return(false, nil)

	s := NewSubscription(store, nil, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionCreated, "sub_1", 1_700_000_000, model.EventObject{Status: "active"})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubscription_ProcessEvent_Updated_AppliesReportedStatus(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	notifier := &mocks.Notifier{}
	id := uuid.New()

	existing := model.Subscription{ID: id, ExternalID: "sub_1", Status: model.SubscriptionActive, Currency: "usd"}
	store.On("GetByExternalID", mock.Anything, "sub_1").Return(existing, nil)
	store.On("Update", mock.Anything, id, mock.MatchedBy(func(p model.UpdateSubscriptionParams) bool {
		return p.Status == model.SubscriptionPastDue && p.Currency == "usd" && p.EventAt.Unix() == 1_700_000_100
	})).Return(true, nil)
	notifier.On("SubscriptionStatusChanged", mock.Anything, mock.Anything, model.SubscriptionActive).Once()

	s := NewSubscription(store, notifier, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionUpdated, "sub_1", 1_700_000_100, model.EventObject{Status: "past_due"})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubscription_ProcessEvent_Updated_DuplicateIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	notifier := &mocks.Notifier{}
	id := uuid.New()

	existing := model.Subscription{ID: id, ExternalID: "sub_1", Status: model.SubscriptionActive}
	store.On("GetByExternalID", mock.Anything, "sub_1").Return(existing, nil)
	// First delivery applies, the replay loses the compare-and-set.
	store.On("Update", mock.Anything, id, mock.Anything).Return(true, nil).Once()
	store.On("Update", mock.Anything, id, mock.Anything).Return(false, nil).Once()
	notifier.On("SubscriptionStatusChanged", mock.Anything, mock.Anything, model.SubscriptionActive).Once()

	s := NewSubscription(store, notifier, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionUpdated, "sub_1", 1_700_000_100, model.EventObject{Status: "past_due"})

	require.NoError(t, s.ProcessEvent(ctx, event))
	require.NoError(t, s.ProcessEvent(ctx, event))

	store.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "SubscriptionStatusChanged", 1)
}

func TestSubscription_ProcessEvent_Updated_UnknownSubscriptionIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}

	store.On("GetByExternalID", mock.Anything, "sub_missing").Return(model.Subscription{}, model.ErrNotFound)

	s := NewSubscription(store, nil, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionUpdated, "sub_missing", 1_700_000_000, model.EventObject{Status: "active"})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscription_ProcessEvent_MissingID(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	s := NewSubscription(store, nil, testutil.MakeNoopLogger())

	for _, eventType := range []string{
		model.EventSubscriptionCreated,
		model.EventSubscriptionUpdated,
		model.EventSubscriptionDeleted,
		model.EventPaymentFailed,
		model.EventPaymentSucceeded,
	} {
		event := model.WebhookEvent{ID: "evt_1", Type: eventType, Created: 1_700_000_000}
		err := s.ProcessEvent(ctx, event)
		require.ErrorIs(t, err, ErrMissingSubscriptionID, eventType)
	}
}

func TestSubscription_ProcessEvent_Deleted(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	notifier := &mocks.Notifier{}
	id := uuid.New()

	existing := model.Subscription{ID: id, ExternalID: "sub_1", Status: model.SubscriptionActive}
	store.On("GetByExternalID", mock.Anything, "sub_1").Return(existing, nil)
	store.On("SoftDelete", mock.Anything, id, time.Unix(1_700_000_200, 0)).Return(true, nil)
	notifier.On("SubscriptionStatusChanged", mock.Anything, mock.MatchedBy(func(s model.Subscription) bool {
		return s.ExternalID == "sub_1" &&
			s.Status == model.SubscriptionCanceled &&
			s.DeletedAt != nil &&
			s.DeletedAt.Equal(time.Unix(1_700_000_200, 0))
	}), model.SubscriptionActive).Once()

	s := NewSubscription(store, notifier, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionDeleted, "sub_1", 1_700_000_200, model.EventObject{})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubscription_ProcessEvent_Deleted_ReplayFiresNoSideEffects(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	notifier := &mocks.Notifier{}
	id := uuid.New()

	existing := model.Subscription{ID: id, ExternalID: "sub_1", Status: model.SubscriptionCanceled}
	store.On("GetByExternalID", mock.Anything, "sub_1").Return(existing, nil)
	store.On("SoftDelete", mock.Anything, id, mock.Anything).Return(false, nil)

	s := NewSubscription(store, notifier, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionDeleted, "sub_1", 1_700_000_200, model.EventObject{})

	require.NoError(t, s.ProcessEvent(ctx, event))
	notifier.AssertNotCalled(t, "SubscriptionStatusChanged", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscription_ProcessEvent_PaymentFailed(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	id := uuid.New()

	existing := model.Subscription{ID: id, ExternalID: "sub_1", Status: model.SubscriptionActive}
	store.On("GetByExternalID", mock.Anything, "sub_1").Return(existing, nil)
	store.On("Update", mock.Anything, id, mock.MatchedBy(func(p model.UpdateSubscriptionParams) bool {
		return p.Status == model.SubscriptionPastDue &&
			p.LastFailureAt != nil &&
			p.LastFailureReason == "card_declined"
	})).Return(true, nil)

	s := NewSubscription(store, nil, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventPaymentFailed, "", 1_700_000_300, model.EventObject{
		ID:             "in_1",
		Subscription:   "sub_1",
		FailureMessage: "card_declined",
	})

	require.NoError(t, s.ProcessEvent(ctx, event))
	store.AssertExpectations(t)
}

func TestSubscription_ProcessEvent_PaymentSucceeded(t *testing.T) {
	tests := []struct {
		name       string
		status     model.SubscriptionStatus
		wantStatus model.SubscriptionStatus
	}{
		{name: "past due recovers to active", status: model.SubscriptionPastDue, wantStatus: model.SubscriptionActive},
		{name: "active stays active", status: model.SubscriptionActive, wantStatus: model.SubscriptionActive},
		{name: "trialing stays trialing", status: model.SubscriptionTrialing, wantStatus: model.SubscriptionTrialing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &mocks.SubscriptionStore{}
			id := uuid.New()

			failedAt := time.Unix(1_700_000_000, 0)
			existing := model.Subscription{
				ID:                id,
				ExternalID:        "sub_1",
				Status:            tt.status,
				LastFailureAt:     &failedAt,
				LastFailureReason: "card_declined",
			}
			store.On("GetByExternalID", mock.Anything, "sub_1").Return(existing, nil)
			store.On("Update", mock.Anything, id, mock.MatchedBy(func(p model.UpdateSubscriptionParams) bool {
				return p.Status == tt.wantStatus && p.LastFailureAt == nil && p.LastFailureReason == ""
			})).Return(true, nil)

			s := NewSubscription(store, nil, testutil.MakeNoopLogger())
			event := subscriptionEvent(model.EventPaymentSucceeded, "", 1_700_000_400, model.EventObject{
				ID:           "in_2",
				Subscription: "sub_1",
			})

			require.NoError(t, s.ProcessEvent(ctx, event))
			store.AssertExpectations(t)
		})
	}
}

func TestSubscription_ProcessEvent_UnknownTypeIsAcknowledged(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}
	s := NewSubscription(store, nil, testutil.MakeNoopLogger())

	event := model.WebhookEvent{ID: "evt_1", Type: "charge.refunded", Created: 1_700_000_000}
	require.NoError(t, s.ProcessEvent(ctx, event))

	store.AssertNotCalled(t, "GetByExternalID", mock.Anything, mock.Anything)
}

func TestSubscription_ProcessEvent_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SubscriptionStore{}

	store.On("GetByExternalID", mock.Anything, "sub_1").Return(model.Subscription{}, errors.New("connection reset"))

	s := NewSubscription(store, nil, testutil.MakeNoopLogger())
	event := subscriptionEvent(model.EventSubscriptionUpdated, "sub_1", 1_700_000_000, model.EventObject{Status: "active"})

	err := s.ProcessEvent(ctx, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up subscription")
}
