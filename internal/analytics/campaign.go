package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

type CampaignParams struct {
	DiscountPercent float64 `json:"discountPercent"`
	DurationDays    int     `json:"durationDays"`
	MaxUses         int     `json:"maxUses,omitempty"`
}

func (p CampaignParams) validate() error {
	if p.DiscountPercent <= 0 || p.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount percent must be in (0, 100]", ErrInvalidCampaign)
	}
	if p.DurationDays <= 0 {
		return fmt.Errorf("%w: duration must be at least one day", ErrInvalidCampaign)
	}
	if p.MaxUses < 0 {
		return fmt.Errorf("%w: max uses cannot be negative", ErrInvalidCampaign)
	}
	return nil
}

// GenerateDiscountCampaign builds a campaign value. It does not persist it;
// storing the campaign is up to whoever consumes the result.
func (s *Service) GenerateDiscountCampaign(ctx context.Context, sellerID, segmentID string, params CampaignParams) (campaign domain.DiscountCampaign, err error) {
	_, done := s.observe(ctx, "GenerateDiscountCampaign", sellerID)
	defer done(&err)

	if strings.TrimSpace(segmentID) == "" {
		return domain.DiscountCampaign{}, fmt.Errorf("%w: segment id is required", ErrInvalidCampaign)
	}
	if err := params.validate(); err != nil {
		return domain.DiscountCampaign{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.DiscountCampaign{}, fmt.Errorf("generate campaign id: %w", err)
	}

	maxUses := params.MaxUses
	if maxUses == 0 {
		maxUses = s.ratios.DefaultCampaignMaxUses
	}

	now := s.now()
	return domain.DiscountCampaign{
		ID:              id.String(),
		SellerID:        sellerID,
		SegmentID:       segmentID,
		DiscountPercent: params.DiscountPercent,
		DurationDays:    params.DurationDays,
		MaxUses:         maxUses,
		UsedCount:       0,
		Status:          domain.CampaignStatusActive,
		CreatedAt:       now,
		ExpiresAt:       now.AddDate(0, 0, params.DurationDays),
	}, nil
}
