package domain

import "time"

type CampaignStatus string

const (
	CampaignStatusActive  CampaignStatus = "active"
	CampaignStatusExpired CampaignStatus = "expired"
)

type DiscountCampaign struct {
	ID              string         `json:"id"`
	SellerID        string         `json:"sellerId"`
	SegmentID       string         `json:"segmentId"`
	DiscountPercent float64        `json:"discountPercent"`
	DurationDays    int            `json:"durationDays"`
	MaxUses         int            `json:"maxUses"`
	UsedCount       int            `json:"usedCount"`
	Status          CampaignStatus `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
}

// StatusAt is the campaign's status as of now. A campaign past its expiry
// is expired whatever status it was stored with.
func (c DiscountCampaign) StatusAt(now time.Time) CampaignStatus {
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return CampaignStatusExpired
	}
	return c.Status
}
