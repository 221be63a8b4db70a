package analytics

import (
	"context"
	"fmt"
)

const defaultTopProductsLimit = 10

type TopProduct struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	TotalSold int     `json:"totalSold"`
}

func (s *Service) TopSellingProducts(ctx context.Context, sellerID string, limit int) (products []TopProduct, err error) {
	ctx, done := s.observe(ctx, "TopSellingProducts", sellerID)
	defer done(&err)

	if limit <= 0 {
		limit = defaultTopProductsLimit
	}

	rows, err := s.store.TopSellingProducts(ctx, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("load top products: %w", err)
	}

	products = make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, TopProduct{
			ProductID: row.Product.ID,
			Title:     row.Product.Title,
			Price:     row.Product.Price.InexactFloat64(),
			TotalSold: row.TotalSold,
		})
	}
	return products, nil
}
