//go:build integration

package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/sokonova-analytics/internal/testsupport"
)

func seed(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err, query)
}

func seedMarketplace(t *testing.T, db *sql.DB, clock time.Time) {
	t.Helper()
	ago := func(days int) time.Time { return clock.AddDate(0, 0, -days) }

	seed(t, db, `INSERT INTO users (id, name, email, created_at) VALUES
		('seller-1', 'Seller One', 's1@example.com', $1),
		('seller-2', 'Seller Two', 's2@example.com', $1),
		('buyer-1', 'Ada', 'ada@example.com', $2),
		('buyer-2', 'Grace', 'grace@example.com', $3)`,
		ago(400), time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC), time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC))

	seed(t, db, `INSERT INTO products (id, seller_id, title, price, created_at) VALUES
		('p-a', 'seller-1', 'Kikoi Wrap', 12.50, $1),
		('p-c', 'seller-1', 'Sisal Basket', 30.00, $2),
		('p-b', 'seller-2', 'Kanga Cloth', 5.00, $1)`,
		ago(200), ago(20))

	seed(t, db, `INSERT INTO inventory (product_id, quantity) VALUES ('p-a', 40), ('p-b', 3)`)

	seed(t, db, `INSERT INTO orders (id, user_id, created_at) VALUES
		('o-1', 'buyer-1', $1),
		('o-2', 'buyer-1', $2),
		('o-3', 'buyer-2', $3),
		('o-4', 'buyer-2', $4)`,
		ago(40), ago(10), ago(5), ago(2))

	seed(t, db, `INSERT INTO order_items (id, order_id, product_id, seller_id, qty, price) VALUES
		('i-1', 'o-1', 'p-a', 'seller-1', 2, 10.00),
		('i-2', 'o-1', 'p-b', 'seller-2', 1, 5.00),
		('i-3', 'o-2', 'p-c', 'seller-1', 1, 30.00),
		('i-4', 'o-3', 'p-a', 'seller-1', 1, 12.50),
		('i-5', 'o-4', 'p-b', 'seller-2', 4, 5.00)`)
}

func TestPostgresStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := testsupport.SetupPostgres(ctx, t)
	clock := time.Now().UTC().Truncate(time.Second)
	seedMarketplace(t, db, clock)

	store := NewPostgresStore(db)

	t.Run("seller orders carry every item", func(t *testing.T) {
		orders, err := store.SellerOrders(ctx, "seller-1", OrderQuery{})
		require.NoError(t, err)
		require.Len(t, orders, 3)

		assert.Equal(t, []string{"o-3", "o-2", "o-1"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
		assert.Equal(t, "Ada", orders[2].Buyer.Name)
		require.Len(t, orders[2].Items, 2)
		assert.Equal(t, "12.5", orders[2].Items[0].Product.Price.String())
		assert.Equal(t, "seller-2", orders[2].Items[1].SellerID)
	})

	t.Run("seller orders honour sort and limit", func(t *testing.T) {
		orders, err := store.SellerOrders(ctx, "seller-1", OrderQuery{Limit: 2, Sort: OldestFirst})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "o-1", orders[0].ID)
		assert.Equal(t, "o-2", orders[1].ID)
	})

	t.Run("buyer history includes other sellers", func(t *testing.T) {
		history, err := store.BuyerOrders(ctx, []string{"buyer-2"})
		require.NoError(t, err)
		require.Len(t, history["buyer-2"], 2)
		assert.Equal(t, "o-4", history["buyer-2"][0].ID)
	})

	t.Run("products without inventory rows", func(t *testing.T) {
		products, err := store.SellerProducts(ctx, "seller-1")
		require.NoError(t, err)
		require.Len(t, products, 2)

		assert.Equal(t, "p-a", products[0].ID)
		assert.Equal(t, 40, products[0].OnHand())
		assert.Nil(t, products[1].Inventory)
	})

	t.Run("sales since counts order items", func(t *testing.T) {
		sales, err := store.ProductSalesSince(ctx, "seller-1", clock.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"p-a": 1, "p-c": 1}, sales)

		lifetime, err := store.ProductSalesSince(ctx, "seller-1", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, lifetime["p-a"])
	})

	t.Run("top selling products", func(t *testing.T) {
		top, err := store.TopSellingProducts(ctx, "seller-1", 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "p-a", top[0].Product.ID)
		assert.Equal(t, 2, top[0].TotalSold)
		assert.Equal(t, 1, top[1].TotalSold)
	})

	t.Run("profitability end to end", func(t *testing.T) {
		svc := NewService(store, DefaultRatios(), WithClock(func() time.Time { return clock }))

		m, err := svc.ProfitabilityMetrics(ctx, "seller-1")
		require.NoError(t, err)

		assert.Equal(t, 3, m.OrderCount)
		assert.InDelta(t, 20+30+12.5, m.TotalRevenue, 1e-9)
		assert.InDelta(t, 6.25, m.TotalFees, 1e-9)
		assert.InDelta(t, (12.5*2+30+12.5)*0.6, m.TotalCost, 1e-9)
	})

	t.Run("cohorts end to end", func(t *testing.T) {
		svc := NewService(store, DefaultRatios(), WithClock(func() time.Time { return clock }))

		cohorts, err := svc.BuyerCohorts(ctx, "seller-1")
		require.NoError(t, err)
		require.Len(t, cohorts, 2)
		assert.Equal(t, "2026-01", cohorts[0].Cohort)
		assert.Equal(t, 1, cohorts[0].RepeatBuyers)
		assert.Equal(t, "2026-02", cohorts[1].Cohort)
	})
}
