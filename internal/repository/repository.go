package repository

import (
	"context"

	"catalog-engine/internal/model"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// Query returns every product matching the equality predicates, ordered
	// by sort order and then creation time.
	Query(ctx context.Context, pred model.ProductPredicates) ([]model.Product, error)

	// GetByID retrieves a single live product. Deleted products are not returned.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, p *model.Product) error

	// Update overwrites the mutable fields of an existing product.
	Update(ctx context.Context, p *model.Product) error

	// SetAvailability toggles whether the product can be ordered.
	SetAvailability(ctx context.Context, id string, available bool) error

	// SoftDelete flags the product as deleted.
	SoftDelete(ctx context.Context, id string) error

	// AdjustStock adds delta to the stock level and returns the new level.
	// Returns model.ErrInvalidStock if the result would be negative.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)

	// CreateBatch upserts many products in one round trip.
	CreateBatch(ctx context.Context, products []model.Product) error
}

// ShopRepository defines the interface for shop data access operations.
type ShopRepository interface {
	// GetStatus returns the trading state of a shop, or nil if it does not exist.
	GetStatus(ctx context.Context, shopID string) (*model.ShopStatus, error)

	// Upsert creates or replaces a shop.
	Upsert(ctx context.Context, shop *model.ShopStatus) error
}
