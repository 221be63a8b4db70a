package campaigns

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
	"github.com/joao-fontenele/sokonova-analytics/internal/messaging"
)

type Store interface {
	Save(ctx context.Context, c domain.DiscountCampaign) (bool, error)
}

// LedgerHandler records every generated discount campaign announced on the
// campaign topic.
type LedgerHandler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type LedgerOption func(*LedgerHandler)

func WithClock(now func() time.Time) LedgerOption {
	return func(h *LedgerHandler) {
		h.now = now
	}
}

func NewLedgerHandler(store Store, logger *slog.Logger, opts ...LedgerOption) *LedgerHandler {
	h := &LedgerHandler{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle skips messages it cannot use so a bad payload never wedges the
// partition. Storage errors are returned so the message is redelivered.
func (h *LedgerHandler) Handle(ctx context.Context, d messaging.Delivery) error {
	if d.EventType != "" && d.EventType != domain.EventTypeCampaignCreated {
		h.logger.Warn("skipping unknown event", "event_type", d.EventType, "key", d.Key)
		return nil
	}

	var event domain.CampaignCreatedEvent
	if err := json.Unmarshal(d.Payload, &event); err != nil {
		h.logger.Error("skipping malformed campaign event", "error", err, "key", d.Key)
		return nil
	}
	if event.Campaign.ID == "" {
		h.logger.Error("skipping campaign event without id", "key", d.Key)
		return nil
	}

	c := event.Campaign
	// Events replayed after expiry land as expired.
	c.Status = c.StatusAt(h.now())
	inserted, err := h.store.Save(ctx, c)
	if err != nil {
		h.logger.Error("failed to store campaign", "error", err, "campaign_id", c.ID)
		return fmt.Errorf("store campaign %s: %w", c.ID, err)
	}

	if !inserted {
		h.logger.Info("campaign already recorded", "campaign_id", c.ID)
		return nil
	}

	h.logger.Info("campaign recorded", "campaign_id", c.ID, "seller_id", c.SellerID, "segment_id", c.SegmentID, "status", c.Status)
	return nil
}
