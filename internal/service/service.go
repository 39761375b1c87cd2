package service

import (
	"context"
	"time"

	"catalog-engine/internal/model"
)

// CatalogService serves menu, feed and search reads over the product catalogue.
type CatalogService interface {
	// FindByShopID lists the live products of one shop.
	FindByShopID(ctx context.Context, shopID string, filter model.QueryFilter) (model.Page[model.Product], error)

	// SearchGlobal lists available products across every trading shop.
	SearchGlobal(ctx context.Context, filter model.QueryFilter) (model.Page[model.Product], error)

	// Search runs a typo tolerant free-text search.
	Search(ctx context.Context, query string, opts model.SearchOptions) (model.Page[model.SearchIndexItem], error)

	// InvalidateShopCache drops every cached read of a shop and the search index.
	InvalidateShopCache(shopID string)
}

// ProductWriter is the catalogue write path. Every successful write
// invalidates the cached reads of the affected shop before returning.
type ProductWriter interface {
	Create(ctx context.Context, in *model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id string, in *model.ProductInput) (*model.Product, error)
	SetAvailability(ctx context.Context, id string, available bool) (*model.Product, error)
	SoftDelete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error)
}

// Cache is the subset of the TTL cache used for menu reads.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	InvalidateByPrefix(prefix string) int
}

// IndexInvalidator drops the cached search index.
type IndexInvalidator interface {
	Invalidate()
}

// ProductSearcher runs free-text searches over the search index.
type ProductSearcher interface {
	Search(ctx context.Context, query string, opts model.SearchOptions) ([]model.SearchIndexItem, int, error)
}

// QueryObserver receives read latencies.
type QueryObserver interface {
	ObserveQuery(operation string, d time.Duration)
}

// ShopCacheInvalidator is implemented by CatalogService.
type ShopCacheInvalidator interface {
	InvalidateShopCache(shopID string)
}
