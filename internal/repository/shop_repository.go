package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-engine/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// shopRepository implements the ShopRepository interface using PostgreSQL.
type shopRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShopRepository creates a new PostgreSQL-backed shop repository.
func NewShopRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShopRepository {
	return &shopRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shop").Logger(),
	}
}

// GetStatus returns the trading state of a shop, or nil if it does not exist.
func (r *shopRepository) GetStatus(ctx context.Context, shopID string) (*model.ShopStatus, error) {
	query := `SELECT id, name, status, is_open FROM shops WHERE id = $1`

	var s model.ShopStatus
	err := r.pool.QueryRow(ctx, query, shopID).Scan(&s.ShopID, &s.Name, &s.Status, &s.IsOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("shop_id", shopID).Msg("shop not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("shop_id", shopID).Msg("failed to query shop")
		return nil, fmt.Errorf("failed to query shop: %w", err)
	}

	return &s, nil
}

// Upsert creates or replaces a shop.
func (r *shopRepository) Upsert(ctx context.Context, shop *model.ShopStatus) error {
	query := `
		INSERT INTO shops (id, name, status, is_open, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			is_open = EXCLUDED.is_open,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, shop.ShopID, shop.Name, shop.Status, shop.IsOpen); err != nil {
		r.logger.Error().Err(err).Str("shop_id", shop.ShopID).Msg("failed to upsert shop")
		return fmt.Errorf("failed to upsert shop: %w", err)
	}

	return nil
}
