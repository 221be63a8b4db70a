package analytics

import (
	"context"
	"time"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// OrderQuery narrows SellerOrders. A zero Limit means no limit.
type OrderQuery struct {
	Limit int
	Sort  SortOrder
}

// Store is the read side the aggregator depends on. Orders come back with
// every item (any seller) and each item's product; the aggregator applies
// seller scoping itself.
type Store interface {
	// SellerOrders returns orders containing at least one item sold by sellerID.
	SellerOrders(ctx context.Context, sellerID string, q OrderQuery) ([]domain.Order, error)
	// BuyerOrders returns the full order history of each buyer, keyed by buyer id.
	BuyerOrders(ctx context.Context, buyerIDs []string) (map[string][]domain.Order, error)
	// SellerProducts returns the seller's catalog with inventory attached.
	SellerProducts(ctx context.Context, sellerID string) ([]domain.Product, error)
	// ProductSalesSince counts order items per product for orders created at or after since.
	ProductSalesSince(ctx context.Context, sellerID string, since time.Time) (map[string]int, error)
	// TopSellingProducts orders the seller's products by order-item count, descending.
	TopSellingProducts(ctx context.Context, sellerID string, limit int) ([]domain.ProductSales, error)
}
