package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. Price is the unit price at purchase
// time; SellerID is denormalized from the product for seller-scoped filters.
type OrderItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	SellerID  string          `json:"sellerId"`
	Quantity  int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Product   Product         `json:"product"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        string      `json:"id"`
	BuyerID   string      `json:"buyerId"`
	Buyer     Buyer       `json:"buyer"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SellerItems returns the items of the order that belong to sellerID.
func (o Order) SellerItems(sellerID string) []OrderItem {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			items = append(items, item)
		}
	}
	return items
}

type Buyer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
