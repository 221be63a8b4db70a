package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

const (
	VelocitySlow   = "slow"
	VelocityFast   = "fast"
	VelocityNormal = "normal"

	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"

	AgingVeryOld  = "very_old"
	AgingOld      = "old"
	AgingMaturing = "maturing"

	slowSupplyDays     = 30
	fastSupplyDays     = 7
	veryOldAgeDays     = 180
	stockoutHorizon    = 30
	stockoutHighDays   = 7
	stockoutMediumDays = 14
)

// velocityStatus classifies days of supply. A product without sales in the
// window has zero days of supply and lands in "normal", never "slow".
func velocityStatus(dailyRate, daysOfSupply float64) string {
	switch {
	case dailyRate == 0:
		return VelocityNormal
	case daysOfSupply > slowSupplyDays:
		return VelocitySlow
	case daysOfSupply < fastSupplyDays:
		return VelocityFast
	default:
		return VelocityNormal
	}
}

type productVelocity struct {
	product      domain.Product
	unitsSold    int
	dailyRate    float64
	daysOfSupply float64
}

func (s *Service) velocities(ctx context.Context, sellerID string) ([]productVelocity, error) {
	products, err := s.store.SellerProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("load seller products: %w", err)
	}

	window := s.ratios.VelocityWindowDays
	since := s.now().AddDate(0, 0, -window)
	sales, err := s.store.ProductSalesSince(ctx, sellerID, since)
	if err != nil {
		return nil, fmt.Errorf("load product sales: %w", err)
	}

	rows := make([]productVelocity, 0, len(products))
	for _, p := range products {
		units := sales[p.ID]
		rate := float64(units) / float64(window)
		var supply float64
		if rate > 0 {
			supply = float64(p.OnHand()) / rate
		}
		rows = append(rows, productVelocity{product: p, unitsSold: units, dailyRate: rate, daysOfSupply: supply})
	}
	return rows, nil
}

type ProductVelocity struct {
	ProductID        string  `json:"productId"`
	Title            string  `json:"title"`
	CurrentInventory int     `json:"currentInventory"`
	UnitsSold        int     `json:"unitsSold"`
	DailySalesRate   float64 `json:"dailySalesRate"`
	DaysOfSupply     float64 `json:"daysOfSupply"`
	Status           string  `json:"status"`
}

type VelocitySummary struct {
	TotalInventory  int     `json:"totalInventory"`
	TotalUnitsSold  int     `json:"totalUnitsSold"`
	AvgDaysOfSupply float64 `json:"avgDaysOfSupply"`
	SlowMovers      int     `json:"slowMovers"`
	FastMovers      int     `json:"fastMovers"`
}

type InventoryVelocityReport struct {
	Products []ProductVelocity `json:"products"`
	Summary  VelocitySummary   `json:"summary"`
}

func (s *Service) InventoryVelocity(ctx context.Context, sellerID string) (report InventoryVelocityReport, err error) {
	ctx, done := s.observe(ctx, "InventoryVelocity", sellerID)
	defer done(&err)

	rows, err := s.velocities(ctx, sellerID)
	if err != nil {
		return InventoryVelocityReport{}, err
	}

	report.Products = make([]ProductVelocity, 0, len(rows))
	var supplyTotal float64
	for _, row := range rows {
		status := velocityStatus(row.dailyRate, row.daysOfSupply)
		report.Products = append(report.Products, ProductVelocity{
			ProductID:        row.product.ID,
			Title:            row.product.Title,
			CurrentInventory: row.product.OnHand(),
			UnitsSold:        row.unitsSold,
			DailySalesRate:   row.dailyRate,
			DaysOfSupply:     row.daysOfSupply,
			Status:           status,
		})

		report.Summary.TotalInventory += row.product.OnHand()
		report.Summary.TotalUnitsSold += row.unitsSold
		supplyTotal += row.daysOfSupply
		switch status {
		case VelocitySlow:
			report.Summary.SlowMovers++
		case VelocityFast:
			report.Summary.FastMovers++
		}
	}
	if len(rows) > 0 {
		report.Summary.AvgDaysOfSupply = supplyTotal / float64(len(rows))
	}
	return report, nil
}

func agingRisk(ageDays int) float64 {
	if ageDays > veryOldAgeDays {
		return 0.8
	}
	return 0.2
}

// velocityRisk penalizes overstock, not stockout.
func velocityRisk(daysOfSupply float64) float64 {
	switch {
	case daysOfSupply > slowSupplyDays:
		return 0.9
	case daysOfSupply < fastSupplyDays:
		return 0.3
	default:
		return 0.6
	}
}

// ratingRisk maps a 0-5 average rating onto [0,1]; an unrated product is
// maximally risky.
func ratingRisk(rating float64) float64 {
	return math.Min(1, math.Max(0, 1-rating/5))
}

func riskLevel(score int) string {
	switch {
	case score > 70:
		return RiskHigh
	case score > 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

type ProductRisk struct {
	ProductID    string  `json:"productId"`
	Title        string  `json:"title"`
	AgeInDays    int     `json:"ageInDays"`
	DaysOfSupply float64 `json:"daysOfSupply"`
	AgingRisk    float64 `json:"agingRisk"`
	VelocityRisk float64 `json:"velocityRisk"`
	RatingRisk   float64 `json:"ratingRisk"`
	RiskScore    int     `json:"riskScore"`
	RiskLevel    string  `json:"riskLevel"`
}

type RiskDistribution struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

type RiskSummary struct {
	TotalProducts int              `json:"totalProducts"`
	HighRisk      int              `json:"highRisk"`
	MediumRisk    int              `json:"mediumRisk"`
	LowRisk       int              `json:"lowRisk"`
	Distribution  RiskDistribution `json:"distribution"`
}

type InventoryRiskReport struct {
	Products []ProductRisk `json:"products"`
	Summary  RiskSummary   `json:"summary"`
}

// InventoryRisk blends product age, overstock and rating into a 0-100 score.
// There is no rating source yet: a product with any sales gets the
// placeholder rating, one without sales gets zero. With DefaultRatios the
// score tops out at 70, so no product reaches "high" (and no markdown is
// recommended) unless PlaceholderRating is lowered.
func (s *Service) InventoryRisk(ctx context.Context, sellerID string) (report InventoryRiskReport, err error) {
	ctx, done := s.observe(ctx, "InventoryRisk", sellerID)
	defer done(&err)

	rows, err := s.velocities(ctx, sellerID)
	if err != nil {
		return InventoryRiskReport{}, err
	}
	lifetime, err := s.store.ProductSalesSince(ctx, sellerID, time.Time{})
	if err != nil {
		return InventoryRiskReport{}, fmt.Errorf("load lifetime sales: %w", err)
	}

	now := s.now()
	report.Products = make([]ProductRisk, 0, len(rows))
	for _, row := range rows {
		age := daysBetween(row.product.CreatedAt, now)
		var rating float64
		if lifetime[row.product.ID] > 0 {
			rating = s.ratios.PlaceholderRating
		}

		aging, velocity, ratingR := agingRisk(age), velocityRisk(row.daysOfSupply), ratingRisk(rating)
		score := int(math.Round((aging + velocity + ratingR) / 3 * 100))
		level := riskLevel(score)

		report.Products = append(report.Products, ProductRisk{
			ProductID:    row.product.ID,
			Title:        row.product.Title,
			AgeInDays:    age,
			DaysOfSupply: row.daysOfSupply,
			AgingRisk:    aging,
			VelocityRisk: velocity,
			RatingRisk:   ratingR,
			RiskScore:    score,
			RiskLevel:    level,
		})

		switch level {
		case RiskHigh:
			report.Summary.HighRisk++
		case RiskMedium:
			report.Summary.MediumRisk++
		default:
			report.Summary.LowRisk++
		}
	}

	total := len(report.Products)
	report.Summary.TotalProducts = total
	if total > 0 {
		report.Summary.Distribution = RiskDistribution{
			High:   float64(report.Summary.HighRisk) / float64(total) * 100,
			Medium: float64(report.Summary.MediumRisk) / float64(total) * 100,
			Low:    float64(report.Summary.LowRisk) / float64(total) * 100,
		}
	}
	return report, nil
}

func agingStatus(ageDays, oldAfterDays int) string {
	switch {
	case ageDays > veryOldAgeDays:
		return AgingVeryOld
	case ageDays > oldAfterDays:
		return AgingOld
	default:
		return AgingMaturing
	}
}

type AgingItem struct {
	ProductID        string    `json:"productId"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"createdAt"`
	AgeInDays        int       `json:"ageInDays"`
	CurrentInventory int       `json:"currentInventory"`
	Status           string    `json:"status"`
}

func (s *Service) AgingInventory(ctx context.Context, sellerID string) (items []AgingItem, err error) {
	ctx, done := s.observe(ctx, "AgingInventory", sellerID)
	defer done(&err)

	products, err := s.store.SellerProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("load seller products: %w", err)
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -s.ratios.AgingMinDays)
	items = make([]AgingItem, 0)
	for _, p := range products {
		if !p.CreatedAt.Before(cutoff) {
			continue
		}
		age := daysBetween(p.CreatedAt, now)
		items = append(items, AgingItem{
			ProductID:        p.ID,
			Title:            p.Title,
			CreatedAt:        p.CreatedAt,
			AgeInDays:        age,
			CurrentInventory: p.OnHand(),
			Status:           agingStatus(age, s.ratios.AgingMinDays),
		})
	}
	return items, nil
}

func stockoutRisk(daysUntilStockout int) string {
	switch {
	case daysUntilStockout < stockoutHighDays:
		return RiskHigh
	case daysUntilStockout < stockoutMediumDays:
		return RiskMedium
	default:
		return RiskLow
	}
}

type StockoutPrediction struct {
	ProductID          string  `json:"productId"`
	Title              string  `json:"title"`
	CurrentInventory   int     `json:"currentInventory"`
	UnitsSold          int     `json:"unitsSold"`
	DailySalesRate     float64 `json:"dailySalesRate"`
	DaysUntilStockout  int     `json:"daysUntilStockout"`
	RiskOfStockout     string  `json:"riskOfStockout"`
	RecommendedRestock int     `json:"recommendedRestock"`
}

// StockoutPredictions returns products projected to run out within the
// horizon. Products with no recent sales report zero days and are included.
func (s *Service) StockoutPredictions(ctx context.Context, sellerID string) (predictions []StockoutPrediction, err error) {
	ctx, done := s.observe(ctx, "StockoutPredictions", sellerID)
	defer done(&err)

	products, err := s.store.SellerProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("load seller products: %w", err)
	}

	window := s.ratios.StockoutWindowDays
	sales, err := s.store.ProductSalesSince(ctx, sellerID, s.now().AddDate(0, 0, -window))
	if err != nil {
		return nil, fmt.Errorf("load product sales: %w", err)
	}

	cover := s.ratios.RestockCoverDays
	predictions = make([]StockoutPrediction, 0)
	for _, p := range products {
		units := sales[p.ID]
		onHand := p.OnHand()

		// Integer forms of floor(onHand/rate) and ceil(rate*cover) where
		// rate = units/window, so boundaries are not at the mercy of rounding.
		var days, restock int
		if units > 0 {
			days = onHand * window / units
			restock = (units*cover + window - 1) / window
		}
		if days >= stockoutHorizon {
			continue
		}

		predictions = append(predictions, StockoutPrediction{
			ProductID:          p.ID,
			Title:              p.Title,
			CurrentInventory:   onHand,
			UnitsSold:          units,
			DailySalesRate:     float64(units) / float64(window),
			DaysUntilStockout:  days,
			RiskOfStockout:     stockoutRisk(days),
			RecommendedRestock: restock,
		})
	}
	return predictions, nil
}

const (
	RecommendationMarkdown = "markdown"
	RecommendationRestock  = "restock"
	RecommendationBundle   = "bundle"
)

type Recommendation struct {
	Type              string   `json:"type"`
	ProductID         string   `json:"productId"`
	Title             string   `json:"title"`
	Reason            string   `json:"reason"`
	SuggestedDiscount *float64 `json:"suggestedDiscount,omitempty"`
	Quantity          *int     `json:"quantity,omitempty"`
}

// GenerateInventoryRecommendations derives markdown, restock and bundle
// suggestions from the risk, stockout and aging reports. A product can get
// several recommendations. productID is accepted but not used to filter.
func (s *Service) GenerateInventoryRecommendations(ctx context.Context, sellerID, productID string) (recs []Recommendation, err error) {
	ctx, done := s.observe(ctx, "GenerateInventoryRecommendations", sellerID)
	defer done(&err)

	risk, err := s.InventoryRisk(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	stockouts, err := s.StockoutPredictions(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	aging, err := s.AgingInventory(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	recs = make([]Recommendation, 0)
	for _, p := range risk.Products {
		if p.RiskLevel != RiskHigh {
			continue
		}
		discount := s.ratios.MarkdownDiscountPercent
		recs = append(recs, Recommendation{
			Type:              RecommendationMarkdown,
			ProductID:         p.ProductID,
			Title:             p.Title,
			Reason:            fmt.Sprintf("High inventory risk score of %d", p.RiskScore),
			SuggestedDiscount: &discount,
		})
	}
	for _, p := range stockouts {
		if p.RiskOfStockout != RiskHigh {
			continue
		}
		qty := p.RecommendedRestock
		recs = append(recs, Recommendation{
			Type:      RecommendationRestock,
			ProductID: p.ProductID,
			Title:     p.Title,
			Reason:    fmt.Sprintf("Projected to stock out in %d days", p.DaysUntilStockout),
			Quantity:  &qty,
		})
	}
	for _, p := range aging {
		if p.Status != AgingOld && p.Status != AgingVeryOld {
			continue
		}
		recs = append(recs, Recommendation{
			Type:      RecommendationBundle,
			ProductID: p.ProductID,
			Title:     p.Title,
			Reason:    fmt.Sprintf("In inventory for %d days", p.AgeInDays),
		})
	}
	return recs, nil
}
