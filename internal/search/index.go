// Package search builds the in-memory product search index and runs
// approximate, diacritic-insensitive queries against it.
package search

import (
	"context"
	"fmt"
	"time"

	"catalog-engine/internal/model"
	"catalog-engine/internal/textnorm"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// IndexCacheKey is the cache key under which the built index is stored.
const IndexCacheKey = "products:search:index"

// DefaultIndexTTL is used when the builder is given a non-positive TTL.
const DefaultIndexTTL = 10 * time.Minute

// ProductSource is the subset of the product store needed to build the index.
type ProductSource interface {
	Query(ctx context.Context, pred model.ProductPredicates) ([]model.Product, error)
}

// Cache is the subset of the TTL cache used by the builder.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Invalidate(key string)
}

// BuildRecorder receives index rebuild measurements.
type BuildRecorder interface {
	IndexBuilt(d time.Duration, items int, err error)
}

// IndexBuilder materialises the search index on demand and keeps it in the
// shared cache.
type IndexBuilder struct {
	store    ProductSource
	cache    Cache
	ttl      time.Duration
	recorder BuildRecorder
	logger   zerolog.Logger
	group    singleflight.Group
}

// NewIndexBuilder creates an index builder. recorder may be nil.
func NewIndexBuilder(store ProductSource, cache Cache, ttl time.Duration, recorder BuildRecorder, logger zerolog.Logger) *IndexBuilder {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	return &IndexBuilder{
		store:    store,
		cache:    cache,
		ttl:      ttl,
		recorder: recorder,
		logger:   logger.With().Str("component", "search-index").Logger(),
	}
}

// Index returns the current search index, rebuilding it from the product
// store when the cached copy is missing or expired.
func (b *IndexBuilder) Index(ctx context.Context) ([]model.SearchIndexItem, error) {
	if items, ok := b.cached(); ok {
		return items, nil
	}

	// Concurrent misses share one store round trip. The shared rebuild is
	// detached from the first caller so its cancellation does not fail the
	// others; each caller still stops waiting when its own context ends.
	ch := b.group.DoChan(IndexCacheKey, func() (any, error) {
		return b.rebuild(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			b.logger.Debug().Msg("search index rebuild shared between callers")
		}
		return res.Val.([]model.SearchIndexItem), nil
	}
}

// Invalidate drops the cached index so the next read rebuilds it.
func (b *IndexBuilder) Invalidate() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Interface("panic", r).Msg("cache invalidate failed")
		}
	}()

	b.cache.Invalidate(IndexCacheKey)
	b.logger.Debug().Msg("search index invalidated")
}

func (b *IndexBuilder) rebuild(ctx context.Context) ([]model.SearchIndexItem, error) {
	start := time.Now()

	products, err := b.store.Query(ctx, model.ProductPredicates{
		IsDeleted:   model.Ptr(false),
		IsAvailable: model.Ptr(true),
	})
	if err != nil {
		b.record(time.Since(start), 0, err)
		b.logger.Error().Err(err).Msg("failed to load products for search index")
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}

	items := BuildItems(products)
	b.put(items)
	b.record(time.Since(start), len(items), nil)

	b.logger.Info().
		Int("products", len(products)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("search index rebuilt")

	return items, nil
}

// cached reads the index from the cache. Cache faults are logged and treated
// as a miss.
func (b *IndexBuilder) cached() (items []model.SearchIndexItem, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Interface("panic", r).Msg("cache lookup failed, rebuilding index")
			items, ok = nil, false
		}
	}()

	v, found := b.cache.Get(IndexCacheKey)
	if !found {
		return nil, false
	}

	items, ok = v.([]model.SearchIndexItem)
	if !ok {
		b.logger.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("unexpected value under search index key")
	}
	return items, ok
}

func (b *IndexBuilder) put(items []model.SearchIndexItem) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Interface("panic", r).Msg("cache store failed")
		}
	}()

	b.cache.Set(IndexCacheKey, items, b.ttl)
}

func (b *IndexBuilder) record(d time.Duration, items int, err error) {
	if b.recorder != nil {
		b.recorder.IndexBuilt(d, items, err)
	}
}

// BuildItems projects products onto index items. Deleted and unavailable
// products are skipped whatever the store returned.
func BuildItems(products []model.Product) []model.SearchIndexItem {
	items := make([]model.SearchIndexItem, 0, len(products))
	for _, p := range products {
		if p.IsDeleted || !p.IsAvailable {
			continue
		}
		items = append(items, model.SearchIndexItem{
			ID:             p.ID,
			Name:           p.Name,
			NameNormalized: textnorm.Normalize(p.Name),
			Description:    p.Description,
			ShopID:         p.ShopID,
			ShopName:       p.ShopName,
			CategoryID:     p.CategoryID,
			CategoryName:   p.CategoryName,
			Price:          p.Price,
			ImageURLs:      p.ImageURLs,
			IsAvailable:    p.IsAvailable,
			Rating:         p.Rating,
			SoldCount:      p.SoldCount,
		})
	}
	return items
}
