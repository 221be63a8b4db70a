package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultOrdersLimit       = 50
	defaultRecentOrdersLimit = 10
)

var hundred = decimal.NewFromInt(100)

type ProfitabilityMetrics struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalCost        float64 `json:"totalCost"`
	TotalFees        float64 `json:"totalFees"`
	ShippingCosts    float64 `json:"shippingCosts"`
	PromotionalCosts float64 `json:"promotionalCosts"`
	GrossProfit      float64 `json:"grossProfit"`
	NetProfit        float64 `json:"netProfit"`
	ProfitMargin     float64 `json:"profitMargin"`
	OrderCount       int     `json:"orderCount"`
}

// ledger keeps the exact decimal totals a ProfitabilityMetrics is rendered from.
// Shipping and promos are never populated by any order source today.
type ledger struct {
	revenue  decimal.Decimal
	cost     decimal.Decimal
	fees     decimal.Decimal
	shipping decimal.Decimal
	promos   decimal.Decimal
	orders   int
}

func (l ledger) metrics() ProfitabilityMetrics {
	gross := l.revenue.Sub(l.cost)
	net := gross.Sub(l.fees).Sub(l.shipping).Sub(l.promos)

	margin := decimal.Zero
	if !l.revenue.IsZero() {
		margin = net.Div(l.revenue).Mul(hundred)
	}

	return ProfitabilityMetrics{
		TotalRevenue:     l.revenue.InexactFloat64(),
		TotalCost:        l.cost.InexactFloat64(),
		TotalFees:        l.fees.InexactFloat64(),
		ShippingCosts:    l.shipping.InexactFloat64(),
		PromotionalCosts: l.promos.InexactFloat64(),
		GrossProfit:      gross.InexactFloat64(),
		NetProfit:        net.InexactFloat64(),
		ProfitMargin:     margin.InexactFloat64(),
		OrderCount:       l.orders,
	}
}

func (s *Service) ledger(ctx context.Context, sellerID string) (ledger, error) {
	orders, err := s.store.SellerOrders(ctx, sellerID, OrderQuery{})
	if err != nil {
		return ledger{}, fmt.Errorf("load seller orders: %w", err)
	}

	costRatio := decimal.NewFromFloat(s.ratios.CostRatio)
	feeRate := decimal.NewFromFloat(s.ratios.PlatformFeeRate)

	l := ledger{orders: len(orders)}
	for _, order := range orders {
		for _, item := range order.SellerItems(sellerID) {
			qty := decimal.NewFromInt(int64(item.Quantity))
			l.revenue = l.revenue.Add(item.Price.Mul(qty))
			l.cost = l.cost.Add(item.Product.Price.Mul(costRatio).Mul(qty))
			l.fees = l.fees.Add(item.Price.Mul(feeRate).Mul(qty))
		}
	}
	return l, nil
}

// ProfitabilityMetrics rolls up revenue, assumed cost of goods and platform
// fees over every order holding at least one of the seller's items.
func (s *Service) ProfitabilityMetrics(ctx context.Context, sellerID string) (m ProfitabilityMetrics, err error) {
	ctx, done := s.observe(ctx, "ProfitabilityMetrics", sellerID)
	defer done(&err)

	l, err := s.ledger(ctx, sellerID)
	if err != nil {
		return ProfitabilityMetrics{}, err
	}
	return l.metrics(), nil
}

type OrderLine struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Quantity  int     `json:"qty"`
	Price     float64 `json:"price"`
}

type OrderWithFees struct {
	ID          string      `json:"id"`
	BuyerID     string      `json:"buyerId"`
	CreatedAt   time.Time   `json:"createdAt"`
	Items       []OrderLine `json:"items"`
	ItemRevenue float64     `json:"itemRevenue"`
	ItemFees    float64     `json:"itemFees"`
	NetRevenue  float64     `json:"netRevenue"`
}

// OrdersWithFees lists the seller's orders, newest first, each annotated with
// the seller's share of revenue and the platform fee on that share.
func (s *Service) OrdersWithFees(ctx context.Context, sellerID string, limit int) (orders []OrderWithFees, err error) {
	ctx, done := s.observe(ctx, "OrdersWithFees", sellerID)
	defer done(&err)

	if limit <= 0 {
		limit = defaultOrdersLimit
	}
	return s.ordersWithFees(ctx, sellerID, limit)
}

func (s *Service) RecentOrders(ctx context.Context, sellerID string, limit int) (orders []OrderWithFees, err error) {
	ctx, done := s.observe(ctx, "RecentOrders", sellerID)
	defer done(&err)

	if limit <= 0 {
		limit = defaultRecentOrdersLimit
	}
	return s.ordersWithFees(ctx, sellerID, limit)
}

func (s *Service) ordersWithFees(ctx context.Context, sellerID string, limit int) ([]OrderWithFees, error) {
	orders, err := s.store.SellerOrders(ctx, sellerID, OrderQuery{Limit: limit, Sort: NewestFirst})
	if err != nil {
		return nil, fmt.Errorf("load seller orders: %w", err)
	}

	feeRate := decimal.NewFromFloat(s.ratios.PlatformFeeRate)

	result := make([]OrderWithFees, 0, len(orders))
	for _, order := range orders {
		items := order.SellerItems(sellerID)
		lines := make([]OrderLine, 0, len(items))
		revenue := decimal.Zero
		for _, item := range items {
			revenue = revenue.Add(item.Subtotal())
			lines = append(lines, OrderLine{
				ProductID: item.ProductID,
				Title:     item.Product.Title,
				Quantity:  item.Quantity,
				Price:     item.Price.InexactFloat64(),
			})
		}
		fees := revenue.Mul(feeRate)

		result = append(result, OrderWithFees{
			ID:          order.ID,
			BuyerID:     order.BuyerID,
			CreatedAt:   order.CreatedAt,
			Items:       lines,
			ItemRevenue: revenue.InexactFloat64(),
			ItemFees:    fees.InexactFloat64(),
			NetRevenue:  revenue.Sub(fees).InexactFloat64(),
		})
	}
	return result, nil
}

// PricingScenario describes a what-if. Nil fields leave the current value
// untouched. FeeChange replaces the fee total outright; it does not add to it.
type PricingScenario struct {
	FeeChange      *float64 `json:"feeChange,omitempty"`
	BundleDiscount *float64 `json:"bundleDiscount,omitempty"`
}

func (sc PricingScenario) validate() error {
	for _, pct := range []*float64{sc.FeeChange, sc.BundleDiscount} {
		if pct != nil && (*pct < 0 || *pct > 100) {
			return fmt.Errorf("%w: percentages must be between 0 and 100", ErrInvalidScenario)
		}
	}
	return nil
}

type ScenarioDifference struct {
	Revenue   float64 `json:"revenue"`
	NetProfit float64 `json:"netProfit"`
	Margin    float64 `json:"margin"`
}

type PricingSimulation struct {
	Current    ProfitabilityMetrics `json:"current"`
	Simulated  ProfitabilityMetrics `json:"simulated"`
	Difference ScenarioDifference   `json:"difference"`
}

// SimulatePricingScenario evaluates a scenario against one profitability
// snapshot. Cost, shipping and promos stay at their current values.
func (s *Service) SimulatePricingScenario(ctx context.Context, sellerID string, scenario PricingScenario) (result PricingSimulation, err error) {
	ctx, done := s.observe(ctx, "SimulatePricingScenario", sellerID)
	defer done(&err)

	if err := scenario.validate(); err != nil {
		return PricingSimulation{}, err
	}

	current, err := s.ledger(ctx, sellerID)
	if err != nil {
		return PricingSimulation{}, err
	}

	simulated := current
	if scenario.FeeChange != nil {
		simulated.fees = current.revenue.Mul(decimal.NewFromFloat(*scenario.FeeChange)).Div(hundred)
	}
	if scenario.BundleDiscount != nil {
		keep := hundred.Sub(decimal.NewFromFloat(*scenario.BundleDiscount)).Div(hundred)
		simulated.revenue = current.revenue.Mul(keep)
	}

	before, after := current.metrics(), simulated.metrics()
	return PricingSimulation{
		Current:   before,
		Simulated: after,
		Difference: ScenarioDifference{
			Revenue:   after.TotalRevenue - before.TotalRevenue,
			NetProfit: after.NetProfit - before.NetProfit,
			Margin:    after.ProfitMargin - before.ProfitMargin,
		},
	}, nil
}
