package analytics

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (r *PostgresStore) SellerOrders(ctx context.Context, sellerID string, q OrderQuery) ([]domain.Order, error) {
	direction := "DESC"
	if q.Sort == OldestFirst {
		direction = "ASC"
	}

	var limit sql.NullInt64
	if q.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(q.Limit), Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.created_at, u.id, u.name, u.email, u.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE EXISTS (
			SELECT 1 FROM order_items oi
			WHERE oi.order_id = o.id AND oi.seller_id = $1
		)
		ORDER BY o.created_at `+direction+`
		LIMIT $2
	`, sellerID, limit)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

func (r *PostgresStore) BuyerOrders(ctx context.Context, buyerIDs []string) (map[string][]domain.Order, error) {
	history := make(map[string][]domain.Order, len(buyerIDs))
	if len(buyerIDs) == 0 {
		return history, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.created_at, u.id, u.name, u.email, u.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.user_id = ANY($1)
		ORDER BY o.created_at DESC
	`, pq.Array(buyerIDs))
	if err != nil {
		return nil, err
	}

	orders, err := r.collectOrders(ctx, rows)
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		history[order.BuyerID] = append(history[order.BuyerID], order)
	}
	return history, nil
}

// collectOrders scans order headers from rows, then loads every item of
// those orders in one round trip.
func (r *PostgresStore) collectOrders(ctx context.Context, rows *sql.Rows) ([]domain.Order, error) {
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CreatedAt, &order.Buyer.ID, &order.Buyer.Name, &order.Buyer.Email, &order.Buyer.CreatedAt); err != nil {
			return nil, err
		}
		order.BuyerID = order.Buyer.ID
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, oi.seller_id, oi.qty, oi.price,
		       p.seller_id, p.title, p.price, p.created_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(
			&orderID, &item.ID, &item.ProductID, &item.SellerID, &item.Quantity, &item.Price,
			&item.Product.SellerID, &item.Product.Title, &item.Product.Price, &item.Product.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Product.ID = item.ProductID
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *PostgresStore) SellerProducts(ctx context.Context, sellerID string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.seller_id, p.title, p.price, p.created_at, i.quantity
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE p.seller_id = $1
		ORDER BY p.created_at
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		var quantity sql.NullInt64
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Title, &p.Price, &p.CreatedAt, &quantity); err != nil {
			return nil, err
		}
		if quantity.Valid {
			p.Inventory = &domain.Inventory{ProductID: p.ID, Quantity: int(quantity.Int64)}
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *PostgresStore) ProductSalesSince(ctx context.Context, sellerID string, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.product_id, COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE p.seller_id = $1 AND o.created_at >= $2
		GROUP BY oi.product_id
	`, sellerID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sales := make(map[string]int)
	for rows.Next() {
		var productID string
		var count int
		if err := rows.Scan(&productID, &count); err != nil {
			return nil, err
		}
		sales[productID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (r *PostgresStore) TopSellingProducts(ctx context.Context, sellerID string, limit int) ([]domain.ProductSales, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.seller_id, p.title, p.price, p.created_at, COUNT(oi.id) AS total_sold
		FROM products p
		LEFT JOIN order_items oi ON oi.product_id = p.id
		WHERE p.seller_id = $1
		GROUP BY p.id
		ORDER BY total_sold DESC
		LIMIT $2
	`, sellerID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []domain.ProductSales
	for rows.Next() {
		var row domain.ProductSales
		if err := rows.Scan(&row.Product.ID, &row.Product.SellerID, &row.Product.Title, &row.Product.Price, &row.Product.CreatedAt, &row.TotalSold); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
