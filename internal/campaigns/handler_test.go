package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
	"github.com/joao-fontenele/sokonova-analytics/internal/messaging"
)

type memStore struct {
	saved map[string]domain.DiscountCampaign
	err   error
}

func (m *memStore) Save(_ context.Context, c domain.DiscountCampaign) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.saved == nil {
		m.saved = make(map[string]domain.DiscountCampaign)
	}
	if _, ok := m.saved[c.ID]; ok {
		return false, nil
	}
	m.saved[c.ID] = c
	return true, nil
}

func newDelivery(t *testing.T, c domain.DiscountCampaign) messaging.Delivery {
	t.Helper()
	payload, err := json.Marshal(domain.CampaignCreatedEvent{Campaign: c, Timestamp: c.CreatedAt})
	require.NoError(t, err)
	return messaging.Delivery{Key: c.SellerID, EventType: domain.EventTypeCampaignCreated, Payload: payload}
}

func TestLedgerHandler_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	created := time.Date(2026, time.May, 1, 9, 30, 0, 0, time.UTC)
	campaign := domain.DiscountCampaign{
		ID:              "0190a0b4-1111-7000-8000-000000000001",
		SellerID:        "seller-1",
		SegmentID:       "atRisk",
		DiscountPercent: 12.5,
		DurationDays:    10,
		MaxUses:         100,
		Status:          domain.CampaignStatusActive,
		CreatedAt:       created,
		ExpiresAt:       created.AddDate(0, 0, 10),
	}

	t.Run("stores the campaign once", func(t *testing.T) {
		store := &memStore{}
		h := NewLedgerHandler(store, logger, WithClock(func() time.Time { return created.Add(time.Hour) }))

		require.NoError(t, h.Handle(context.Background(), newDelivery(t, campaign)))
		require.NoError(t, h.Handle(context.Background(), newDelivery(t, campaign)))

		require.Len(t, store.saved, 1)
		got := store.saved[campaign.ID]
		assert.Equal(t, campaign.SegmentID, got.SegmentID)
		assert.Equal(t, 12.5, got.DiscountPercent)
		assert.True(t, got.ExpiresAt.Equal(campaign.ExpiresAt))
		assert.Equal(t, domain.CampaignStatusActive, got.Status)
	})

	t.Run("records a campaign replayed after expiry as expired", func(t *testing.T) {
		store := &memStore{}
		h := NewLedgerHandler(store, logger, WithClock(func() time.Time { return campaign.ExpiresAt.Add(time.Minute) }))

		require.NoError(t, h.Handle(context.Background(), newDelivery(t, campaign)))

		require.Len(t, store.saved, 1)
		assert.Equal(t, domain.CampaignStatusExpired, store.saved[campaign.ID].Status)
	})

	t.Run("returns storage errors for redelivery", func(t *testing.T) {
		boom := errors.New("connection reset")
		h := NewLedgerHandler(&memStore{err: boom}, logger)

		err := h.Handle(context.Background(), newDelivery(t, campaign))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("skips what it cannot use", func(t *testing.T) {
		store := &memStore{}
		h := NewLedgerHandler(store, logger)

		deliveries := []messaging.Delivery{
			{EventType: "order.created", Payload: []byte(`{}`)},
			{EventType: domain.EventTypeCampaignCreated, Payload: []byte(`not json`)},
			{EventType: domain.EventTypeCampaignCreated, Payload: []byte(`{"campaign":{}}`)},
		}
		for _, d := range deliveries {
			assert.NoError(t, h.Handle(context.Background(), d))
		}
		assert.Empty(t, store.saved)
	})

	t.Run("accepts messages without an event type header", func(t *testing.T) {
		store := &memStore{}
		h := NewLedgerHandler(store, logger)

		d := newDelivery(t, campaign)
		d.EventType = ""
		require.NoError(t, h.Handle(context.Background(), d))
		assert.Len(t, store.saved, 1)
	})
}
