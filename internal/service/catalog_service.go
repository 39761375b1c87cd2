package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog-engine/internal/model"
	"catalog-engine/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMenuTTL is how long a shop menu stays cached.
	DefaultMenuTTL = 5 * time.Minute

	// DefaultShopLookupConcurrency bounds the parallel shop status lookups
	// made by SearchGlobal.
	DefaultShopLookupConcurrency = 8
)

// CatalogConfig tunes the catalog service.
type CatalogConfig struct {
	MenuTTL               time.Duration
	ShopLookupConcurrency int
	Observer              QueryObserver // optional
}

// catalogService implements CatalogService.
type catalogService struct {
	store    repository.ProductRepository
	shops    repository.ShopRepository
	cache    Cache
	searcher ProductSearcher
	index    IndexInvalidator
	cfg      CatalogConfig
	logger   zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	store repository.ProductRepository,
	shops repository.ShopRepository,
	cache Cache,
	searcher ProductSearcher,
	index IndexInvalidator,
	cfg CatalogConfig,
	logger zerolog.Logger,
) CatalogService {
	if cfg.MenuTTL <= 0 {
		cfg.MenuTTL = DefaultMenuTTL
	}
	if cfg.ShopLookupConcurrency <= 0 {
		cfg.ShopLookupConcurrency = DefaultShopLookupConcurrency
	}
	return &catalogService{
		store:    store,
		shops:    shops,
		cache:    cache,
		searcher: searcher,
		index:    index,
		cfg:      cfg,
		logger:   logger.With().Str("service", "catalog").Logger(),
	}
}

// ShopCachePrefix is the prefix shared by every cache key of a shop.
func ShopCachePrefix(shopID string) string {
	return "shop:" + shopID + ":"
}

// MenuCacheKey builds the cache key of a shop menu from the equality
// filters that take part in caching.
func MenuCacheKey(shopID string, filter model.QueryFilter) string {
	var b strings.Builder
	b.WriteString(ShopCachePrefix(shopID))
	b.WriteString("products")
	if filter.CategoryID != nil {
		b.WriteString(":cat:")
		b.WriteString(*filter.CategoryID)
	}
	if filter.IsAvailable != nil {
		b.WriteString(":avail:")
		b.WriteString(strconv.FormatBool(*filter.IsAvailable))
	}
	return b.String()
}

// IsCacheable reports whether a normalized menu query may use the cache.
func IsCacheable(filter model.QueryFilter) bool {
	return filter.Q == "" && filter.Page == 1 && filter.Limit >= model.DefaultLimit
}

// FindByShopID lists the live products of one shop. Base menu queries are
// served from the cache; the cached value is the equality-filtered product
// set, so sorting and paging are always applied per request.
func (s *catalogService) FindByShopID(ctx context.Context, shopID string, filter model.QueryFilter) (model.Page[model.Product], error) {
	defer s.observe("find_by_shop", time.Now())

	if shopID == "" {
		return model.Page[model.Product]{}, model.ErrMissingShopID
	}
	filter = filter.Normalize()

	key := MenuCacheKey(shopID, filter)
	cacheable := IsCacheable(filter)

	var (
		products []model.Product
		hit      bool
	)
	if cacheable {
		products, hit = s.cachedMenu(key)
	}

	if !hit {
		fetched, err := s.store.Query(ctx, model.ProductPredicates{
			ShopID:      &shopID,
			CategoryID:  filter.CategoryID,
			IsAvailable: filter.IsAvailable,
			IsDeleted:   model.Ptr(false),
		})
		if err != nil {
			s.logger.Error().Err(err).Str("shop_id", shopID).Msg("failed to query shop products")
			return model.Page[model.Product]{}, fmt.Errorf("failed to query shop products: %w", err)
		}
		products = fetched

		if cacheable {
			s.putMenu(key, products)
		}
	}

	page := paginate(sortProducts(filterProducts(products, filter), filter.Sort), filter)

	s.logger.Debug().
		Str("shop_id", shopID).
		Bool("cache_hit", hit).
		Int("total", page.Total).
		Int("returned", len(page.Items)).
		Msg("shop products retrieved")

	return page, nil
}

// SearchGlobal lists available products of trading shops. Results are never
// cached because they depend on volatile shop state.
func (s *catalogService) SearchGlobal(ctx context.Context, filter model.QueryFilter) (model.Page[model.Product], error) {
	defer s.observe("search_global", time.Now())

	filter = filter.Normalize()

	products, err := s.store.Query(ctx, model.ProductPredicates{
		ShopID:      filter.ShopID,
		CategoryID:  filter.CategoryID,
		IsAvailable: model.Ptr(true),
		IsDeleted:   model.Ptr(false),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query products")
		return model.Page[model.Product]{}, fmt.Errorf("failed to query products: %w", err)
	}

	candidates := filterProducts(products, filter)

	trading, err := s.tradingShops(ctx, candidates)
	if err != nil {
		return model.Page[model.Product]{}, err
	}

	visible := make([]model.Product, 0, len(candidates))
	for _, p := range candidates {
		if trading[p.ShopID] {
			visible = append(visible, p)
		}
	}

	page := paginate(sortProducts(visible, filter.Sort), filter)

	s.logger.Debug().
		Int("candidates", len(candidates)).
		Int("shops", len(trading)).
		Int("total", page.Total).
		Msg("global feed retrieved")

	return page, nil
}

// Search runs a free-text search over the search index.
func (s *catalogService) Search(ctx context.Context, query string, opts model.SearchOptions) (model.Page[model.SearchIndexItem], error) {
	defer s.observe("search", time.Now())

	items, total, err := s.searcher.Search(ctx, query, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to search products")
		return model.Page[model.SearchIndexItem]{}, fmt.Errorf("failed to search products: %w", err)
	}

	return model.Page[model.SearchIndexItem]{Items: items, Total: total}, nil
}

// InvalidateShopCache drops every cached read of a shop and, since any
// product change can alter search results, the search index too.
func (s *catalogService) InvalidateShopCache(shopID string) {
	removed := s.invalidatePrefix(ShopCachePrefix(shopID))
	s.index.Invalidate()

	s.logger.Debug().
		Str("shop_id", shopID).
		Int("removed", removed).
		Msg("shop cache invalidated")
}

// tradingShops looks up every distinct shop of products concurrently and
// reports which of them are trading. Missing shops are not trading.
func (s *catalogService) tradingShops(ctx context.Context, products []model.Product) (map[string]bool, error) {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, p := range products {
		if _, ok := seen[p.ShopID]; ok {
			continue
		}
		seen[p.ShopID] = struct{}{}
		ids = append(ids, p.ShopID)
	}

	open := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ShopLookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			status, err := s.shops.GetStatus(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get status of shop %s: %w", id, err)
			}
			open[i] = status.Trading()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int("shops", len(ids)).Msg("failed to look up shop statuses")
		return nil, err
	}

	trading := make(map[string]bool, len(ids))
	for i, id := range ids {
		trading[id] = open[i]
	}
	return trading, nil
}

// cachedMenu reads a menu from the cache. Faults count as a miss.
func (s *catalogService) cachedMenu(key string) (products []model.Product, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Str("key", key).Msg("cache lookup failed, reading through")
			products, ok = nil, false
		}
	}()

	v, found := s.cache.Get(key)
	if !found {
		return nil, false
	}

	products, ok = v.([]model.Product)
	if !ok {
		s.logger.Warn().Str("key", key).Str("type", fmt.Sprintf("%T", v)).Msg("unexpected value in menu cache")
	}
	return products, ok
}

func (s *catalogService) putMenu(key string, products []model.Product) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Str("key", key).Msg("cache store failed")
		}
	}()

	s.cache.Set(key, products, s.cfg.MenuTTL)
}

func (s *catalogService) invalidatePrefix(prefix string) (removed int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Str("prefix", prefix).Msg("cache invalidate failed")
		}
	}()

	return s.cache.InvalidateByPrefix(prefix)
}

func (s *catalogService) observe(operation string, start time.Time) {
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveQuery(operation, time.Since(start))
	}
}

// filterProducts applies the free-text and price filters. The input slice
// is never modified.
func filterProducts(products []model.Product, filter model.QueryFilter) []model.Product {
	q := strings.ToLower(filter.Q)

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if !model.InPriceRange(p.Price, filter.MinPrice, filter.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortProducts orders products in place, keeping the relative order of ties.
func sortProducts(products []model.Product, order model.SortOrder) []model.Product {
	var less func(a, b *model.Product) bool
	switch order {
	case model.SortPopular:
		less = func(a, b *model.Product) bool { return a.SoldCount > b.SoldCount }
	case model.SortRating:
		less = func(a, b *model.Product) bool { return a.Rating > b.Rating }
	case model.SortPrice:
		less = func(a, b *model.Product) bool { return a.Price < b.Price }
	default:
		less = func(a, b *model.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(&products[i], &products[j])
	})
	return products
}

func paginate(products []model.Product, filter model.QueryFilter) model.Page[model.Product] {
	total := len(products)

	start := filter.Offset()
	if start > total {
		start = total
	}
	end := total
	if filter.Limit < total-start {
		end = start + filter.Limit
	}

	return model.Page[model.Product]{Items: products[start:end], Total: total}
}
