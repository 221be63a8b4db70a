package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

var now = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

// memStore is an in-memory Store. Orders carry every item regardless of
// seller, mirroring what PostgresStore returns.
type memStore struct {
	orders   []domain.Order
	products []domain.Product
	err      error

	lastQuery      OrderQuery
	lastTopLimit   int
	buyerOrderCall int
}

func (m *memStore) SellerOrders(_ context.Context, sellerID string, q OrderQuery) ([]domain.Order, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}

	var result []domain.Order
	for _, o := range m.orders {
		if len(o.SellerItems(sellerID)) > 0 {
			result = append(result, o)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if q.Sort == OldestFirst {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (m *memStore) BuyerOrders(_ context.Context, buyerIDs []string) (map[string][]domain.Order, error) {
	m.buyerOrderCall++
	if m.err != nil {
		return nil, m.err
	}

	wanted := make(map[string]bool, len(buyerIDs))
	for _, id := range buyerIDs {
		wanted[id] = true
	}
	history := make(map[string][]domain.Order)
	for _, o := range m.orders {
		if wanted[o.BuyerID] {
			history[o.BuyerID] = append(history[o.BuyerID], o)
		}
	}
	return history, nil
}

func (m *memStore) SellerProducts(_ context.Context, sellerID string) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}

	var result []domain.Product
	for _, p := range m.products {
		if p.SellerID == sellerID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *memStore) ProductSalesSince(_ context.Context, sellerID string, since time.Time) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}

	sales := make(map[string]int)
	for _, o := range m.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		for _, item := range o.SellerItems(sellerID) {
			sales[item.ProductID]++
		}
	}
	return sales, nil
}

func (m *memStore) TopSellingProducts(ctx context.Context, sellerID string, limit int) ([]domain.ProductSales, error) {
	m.lastTopLimit = limit
	products, err := m.SellerProducts(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	sales, _ := m.ProductSalesSince(ctx, sellerID, time.Time{})

	result := make([]domain.ProductSales, 0, len(products))
	for _, p := range products {
		result = append(result, domain.ProductSales{Product: p, TotalSold: sales[p.ID]})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].TotalSold > result[j].TotalSold })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func newService(store Store, opts ...Option) *Service {
	return NewService(store, DefaultRatios(), append([]Option{WithClock(func() time.Time { return now })}, opts...)...)
}

func newProduct(id, sellerID, price string, createdAt time.Time, onHand int) domain.Product {
	return domain.Product{
		ID:        id,
		SellerID:  sellerID,
		Title:     "Product " + id,
		Price:     decimal.RequireFromString(price),
		CreatedAt: createdAt,
		Inventory: &domain.Inventory{ProductID: id, Quantity: onHand},
	}
}

func newItem(p domain.Product, qty int, price string) domain.OrderItem {
	return domain.OrderItem{
		ProductID: p.ID,
		SellerID:  p.SellerID,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
		Product:   p,
	}
}

// repeatItems returns n single-unit items of p, one order-item row each.
func repeatItems(p domain.Product, n int) []domain.OrderItem {
	items := make([]domain.OrderItem, n)
	for i := range items {
		items[i] = newItem(p, 1, p.Price.String())
		items[i].ID = fmt.Sprintf("%s-%d", p.ID, i)
	}
	return items
}

func newBuyer(id string, createdAt time.Time) domain.Buyer {
	return domain.Buyer{ID: id, Name: "Buyer " + id, Email: id + "@example.com", CreatedAt: createdAt}
}

func newOrder(id string, buyer domain.Buyer, createdAt time.Time, items ...domain.OrderItem) domain.Order {
	return domain.Order{
		ID:        id,
		BuyerID:   buyer.ID,
		Buyer:     buyer,
		Items:     items,
		CreatedAt: createdAt,
	}
}
