package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Inventory struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type Product struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"sellerId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
	Inventory *Inventory      `json:"inventory,omitempty"`
}

// OnHand returns the current stock, treating a missing inventory row as zero.
func (p Product) OnHand() int {
	if p.Inventory == nil {
		return 0
	}
	return p.Inventory.Quantity
}

// ProductSales pairs a product with its order-item count.
type ProductSales struct {
	Product   Product
	TotalSold int
}
