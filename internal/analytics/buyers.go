package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

const cohortKeyLayout = "2006-01"

type CohortOrder struct {
	OrderID   string    `json:"orderId"`
	BuyerID   string    `json:"buyerId"`
	Revenue   float64   `json:"revenue"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cohort groups a seller's orders by the buyer's signup month. BuyerCount
// counts orders, so a returning buyer is counted again; UniqueBuyers does not.
type Cohort struct {
	Cohort        string        `json:"cohort"`
	BuyerCount    int           `json:"buyerCount"`
	UniqueBuyers  int           `json:"uniqueBuyers"`
	RepeatBuyers  int           `json:"repeatBuyers"`
	RetentionRate float64       `json:"retentionRate"`
	TotalRevenue  float64       `json:"totalRevenue"`
	Orders        []CohortOrder `json:"orders"`
}

func sellerRevenue(order domain.Order, sellerID string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.SellerItems(sellerID) {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s *Service) BuyerCohorts(ctx context.Context, sellerID string) (cohorts []Cohort, err error) {
	ctx, done := s.observe(ctx, "BuyerCohorts", sellerID)
	defer done(&err)

	orders, err := s.store.SellerOrders(ctx, sellerID, OrderQuery{Sort: OldestFirst})
	if err != nil {
		return nil, fmt.Errorf("load seller orders: %w", err)
	}

	type accumulator struct {
		cohort  Cohort
		revenue decimal.Decimal
		buyers  map[string]struct{}
	}
	byKey := make(map[string]*accumulator)

	for _, order := range orders {
		key := order.Buyer.CreatedAt.UTC().Format(cohortKeyLayout)
		acc, ok := byKey[key]
		if !ok {
			acc = &accumulator{
				cohort: Cohort{Cohort: key, Orders: []CohortOrder{}},
				buyers: make(map[string]struct{}),
			}
			byKey[key] = acc
		}

		revenue := sellerRevenue(order, sellerID)
		acc.cohort.BuyerCount++
		acc.revenue = acc.revenue.Add(revenue)
		acc.buyers[order.BuyerID] = struct{}{}
		acc.cohort.Orders = append(acc.cohort.Orders, CohortOrder{
			OrderID:   order.ID,
			BuyerID:   order.BuyerID,
			Revenue:   revenue.InexactFloat64(),
			CreatedAt: order.CreatedAt,
		})
	}

	cohorts = make([]Cohort, 0, len(byKey))
	for _, acc := range byKey {
		c := acc.cohort
		c.TotalRevenue = acc.revenue.InexactFloat64()
		c.UniqueBuyers = len(acc.buyers)
		c.RepeatBuyers = len(c.Orders) - c.UniqueBuyers
		if c.UniqueBuyers > 0 {
			c.RetentionRate = float64(c.RepeatBuyers) / float64(c.UniqueBuyers) * 100
		}
		cohorts = append(cohorts, c)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Cohort < cohorts[j].Cohort })
	return cohorts, nil
}

const (
	SegmentHighValue = "highValue"
	SegmentFrequent  = "frequent"
	SegmentAtRisk    = "atRisk"
	SegmentSeasonal  = "seasonal"
)

type BuyerSummary struct {
	BuyerID            string    `json:"buyerId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	TotalSpent         float64   `json:"totalSpent"`
	OrderCount         int       `json:"orderCount"`
	LastOrderAt        time.Time `json:"lastOrderAt"`
	DaysSinceLastOrder int       `json:"daysSinceLastOrder"`
}

type Segment struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Criteria string         `json:"criteria"`
	Buyers   []BuyerSummary `json:"buyers"`
}

// BuyerSegments buckets the seller's buyers into overlapping segments using
// each buyer's whole history with this seller. The seasonal segment has no
// rule yet and is always empty.
func (s *Service) BuyerSegments(ctx context.Context, sellerID string) (segments []Segment, err error) {
	ctx, done := s.observe(ctx, "BuyerSegments", sellerID)
	defer done(&err)

	orders, err := s.store.SellerOrders(ctx, sellerID, OrderQuery{Sort: NewestFirst})
	if err != nil {
		return nil, fmt.Errorf("load seller orders: %w", err)
	}

	seen := make(map[string]struct{})
	var buyers []domain.Buyer
	for _, order := range orders {
		if _, ok := seen[order.BuyerID]; ok {
			continue
		}
		seen[order.BuyerID] = struct{}{}
		buyer := order.Buyer
		buyer.ID = order.BuyerID
		buyers = append(buyers, buyer)
	}

	ids := make([]string, 0, len(buyers))
	for _, b := range buyers {
		ids = append(ids, b.ID)
	}
	history := map[string][]domain.Order{}
	if len(ids) > 0 {
		history, err = s.store.BuyerOrders(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load buyer history: %w", err)
		}
	}

	r := s.ratios
	segments = []Segment{
		{ID: SegmentHighValue, Name: "High Value Customers", Criteria: fmt.Sprintf("Total spend over $%.0f", r.HighValueSpend), Buyers: []BuyerSummary{}},
		{ID: SegmentFrequent, Name: "Frequent Buyers", Criteria: fmt.Sprintf("More than %d orders", r.FrequentOrderCount), Buyers: []BuyerSummary{}},
		{ID: SegmentAtRisk, Name: "At-Risk Customers", Criteria: fmt.Sprintf("No purchase in over %d days", r.AtRiskDays), Buyers: []BuyerSummary{}},
		{ID: SegmentSeasonal, Name: "Seasonal Shoppers", Criteria: "Purchases concentrated in specific seasons", Buyers: []BuyerSummary{}},
	}

	now := s.now()
	highValue := decimal.NewFromFloat(r.HighValueSpend)
	for _, buyer := range buyers {
		spend := decimal.Zero
		var count int
		var last time.Time
		for _, order := range history[buyer.ID] {
			items := order.SellerItems(sellerID)
			if len(items) == 0 {
				continue
			}
			count++
			for _, item := range items {
				spend = spend.Add(item.Subtotal())
			}
			if order.CreatedAt.After(last) {
				last = order.CreatedAt
			}
		}
		if count == 0 {
			continue
		}

		summary := BuyerSummary{
			BuyerID:            buyer.ID,
			Name:               buyer.Name,
			Email:              buyer.Email,
			TotalSpent:         spend.InexactFloat64(),
			OrderCount:         count,
			LastOrderAt:        last,
			DaysSinceLastOrder: daysBetween(last, now),
		}
		if spend.GreaterThan(highValue) {
			segments[0].Buyers = append(segments[0].Buyers, summary)
		}
		if count > r.FrequentOrderCount {
			segments[1].Buyers = append(segments[1].Buyers, summary)
		}
		if summary.DaysSinceLastOrder > r.AtRiskDays {
			segments[2].Buyers = append(segments[2].Buyers, summary)
		}
	}
	return segments, nil
}
