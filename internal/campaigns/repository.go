package campaigns

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores c unless a campaign with the same id already exists. It
// reports whether a row was written.
func (r *Repository) Save(ctx context.Context, c domain.DiscountCampaign) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO discount_campaigns
			(id, seller_id, segment_id, discount_percent, duration_days, max_uses, used_count, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.SellerID, c.SegmentID, c.DiscountPercent, c.DurationDays, c.MaxUses, c.UsedCount, string(c.Status), c.CreatedAt, c.ExpiresAt)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns nil when no campaign has id. Status reflects expiry even if the
// row has not been swept yet.
func (r *Repository) Get(ctx context.Context, id string) (*domain.DiscountCampaign, error) {
	var c domain.DiscountCampaign
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, segment_id, discount_percent, duration_days, max_uses, used_count, status, created_at, expires_at
		FROM discount_campaigns
		WHERE id = $1
	`, id).Scan(&c.ID, &c.SellerID, &c.SegmentID, &c.DiscountPercent, &c.DurationDays, &c.MaxUses, &c.UsedCount, &status, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	c.Status = domain.CampaignStatus(status)
	c.Status = c.StatusAt(time.Now())
	return &c, nil
}

// ExpireDue marks active campaigns whose expiry is at or before now as
// expired and reports how many rows changed.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE discount_campaigns
		SET status = $1
		WHERE status = $2 AND expires_at <= $3
	`, string(domain.CampaignStatusExpired), string(domain.CampaignStatusActive), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
