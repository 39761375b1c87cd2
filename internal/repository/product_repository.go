package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-engine/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `
	id, shop_id, shop_name, name, description, price, category_id, category_name,
	image_urls, is_available, preparation_time, rating, total_ratings, sold_count,
	stock, sort_order, is_deleted, created_at, updated_at`

const upsertProduct = `
	INSERT INTO products (` + productColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (id) DO UPDATE SET
		shop_id = EXCLUDED.shop_id,
		shop_name = EXCLUDED.shop_name,
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		category_id = EXCLUDED.category_id,
		category_name = EXCLUDED.category_name,
		image_urls = EXCLUDED.image_urls,
		is_available = EXCLUDED.is_available,
		preparation_time = EXCLUDED.preparation_time,
		rating = EXCLUDED.rating,
		total_ratings = EXCLUDED.total_ratings,
		sold_count = EXCLUDED.sold_count,
		stock = EXCLUDED.stock,
		sort_order = EXCLUDED.sort_order,
		is_deleted = EXCLUDED.is_deleted,
		updated_at = EXCLUDED.updated_at
`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// Query returns every product matching the equality predicates.
func (r *productRepository) Query(ctx context.Context, pred model.ProductPredicates) ([]model.Product, error) {
	where, args := buildPredicates(pred)

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY sort_order, created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single live product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND NOT is_deleted`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	if _, err := r.pool.Exec(ctx, query, productArgs(p)...); err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to insert product")
		return fmt.Errorf("failed to insert product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Str("shop_id", p.ShopID).Msg("product created")
	return nil
}

// Update overwrites the editable fields of a live product. The owning shop,
// the sales counters and the stock level are left untouched; stock only
// moves through AdjustStock.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, price = $4, category_id = $5,
			category_name = $6, image_urls = $7, is_available = $8,
			preparation_time = $9, sort_order = $10, updated_at = $11
		WHERE id = $1 AND NOT is_deleted
	`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID,
		p.CategoryName, imageURLs(p.ImageURLs), p.IsAvailable,
		p.PreparationTime, p.SortOrder, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// SetAvailability toggles whether the product can be ordered.
func (r *productRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE products SET is_available = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`

	tag, err := r.pool.Exec(ctx, query, id, available)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to set product availability")
		return fmt.Errorf("failed to set product availability: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// SoftDelete flags the product as deleted.
func (r *productRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE products SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// AdjustStock adds delta to the stock level in a single statement so that
// concurrent adjustments never drive it below zero.
func (r *productRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted AND stock + $2 >= 0
		RETURNING stock
	`

	var stock int
	err := r.pool.QueryRow(ctx, query, id, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("product_id", id).Int("delta", delta).Msg("failed to adjust stock")
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	// No row updated: either the product is gone or the stock is too low.
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, model.ErrProductNotFound
	}

	r.logger.Warn().
		Str("product_id", id).
		Int("stock", existing.Stock).
		Int("delta", delta).
		Msg("stock adjustment rejected")
	return 0, model.ErrInvalidStock
}

// CreateBatch upserts many products in one round trip.
func (r *productRepository) CreateBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for i := range products {
		p := products[i]
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		batch.Queue(upsertProduct, productArgs(&p)...)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error().Err(err).Int("count", len(products)).Msg("failed to upsert products")
		return fmt.Errorf("failed to upsert products: %w", err)
	}

	r.logger.Debug().Int("count", len(products)).Msg("products upserted")
	return nil
}

// buildPredicates turns the set predicates into a WHERE clause with
// positional arguments.
func buildPredicates(pred model.ProductPredicates) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if pred.ShopID != nil {
		add("shop_id", *pred.ShopID)
	}
	if pred.CategoryID != nil {
		add("category_id", *pred.CategoryID)
	}
	if pred.IsAvailable != nil {
		add("is_available", *pred.IsAvailable)
	}
	if pred.IsDeleted != nil {
		add("is_deleted", *pred.IsDeleted)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.ShopID, &p.ShopName, &p.Name, &p.Description, &p.Price,
		&p.CategoryID, &p.CategoryName, &p.ImageURLs, &p.IsAvailable,
		&p.PreparationTime, &p.Rating, &p.TotalRatings, &p.SoldCount,
		&p.Stock, &p.SortOrder, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func productArgs(p *model.Product) []any {
	return []any{
		p.ID, p.ShopID, p.ShopName, p.Name, p.Description, p.Price,
		p.CategoryID, p.CategoryName, imageURLs(p.ImageURLs), p.IsAvailable,
		p.PreparationTime, p.Rating, p.TotalRatings, p.SoldCount,
		p.Stock, p.SortOrder, p.IsDeleted, p.CreatedAt, p.UpdatedAt,
	}
}

// imageURLs maps nil to an empty array; the column is NOT NULL.
func imageURLs(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
