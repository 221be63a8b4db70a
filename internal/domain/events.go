package domain

import "time"

const EventTypeCampaignCreated = "discount_campaign.created"

type CampaignCreatedEvent struct {
	Campaign  DiscountCampaign `json:"campaign"`
	Timestamp time.Time        `json:"timestamp"`
}
