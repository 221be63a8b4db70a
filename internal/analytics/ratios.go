package analytics

// Ratios holds the business assumptions behind the seller reports. None of
// them is derived from historical data; they are tunable through config.
type Ratios struct {
	CostRatio               float64 `yaml:"cost_ratio"`
	PlatformFeeRate         float64 `yaml:"platform_fee_rate"`
	MarkdownDiscountPercent float64 `yaml:"markdown_discount_percent"`
	PlaceholderRating       float64 `yaml:"placeholder_rating"`
	VelocityWindowDays      int     `yaml:"velocity_window_days"`
	StockoutWindowDays      int     `yaml:"stockout_window_days"`
	RestockCoverDays        int     `yaml:"restock_cover_days"`
	AgingMinDays            int     `yaml:"aging_min_days"`
	HighValueSpend          float64 `yaml:"high_value_spend"`
	FrequentOrderCount      int     `yaml:"frequent_order_count"`
	AtRiskDays              int     `yaml:"at_risk_days"`
	DefaultCampaignMaxUses  int     `yaml:"default_campaign_max_uses"`
}

func DefaultRatios() Ratios {
	return Ratios{
		CostRatio:               0.6,
		PlatformFeeRate:         0.10,
		MarkdownDiscountPercent: 20,
		PlaceholderRating:       4.5,
		VelocityWindowDays:      90,
		StockoutWindowDays:      30,
		RestockCoverDays:        14,
		AgingMinDays:            90,
		HighValueSpend:          200,
		FrequentOrderCount:      3,
		AtRiskDays:              60,
		DefaultCampaignMaxUses:  100,
	}
}
