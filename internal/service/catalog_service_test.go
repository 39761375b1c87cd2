package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"catalog-engine/internal/cache"
	"catalog-engine/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	store    *MockProductRepository
	shops    *MockShopRepository
	searcher *MockSearcher
	index    *MockIndexInvalidator
	cache    *cache.TTLCache[any]
	service  CatalogService
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		store:    new(MockProductRepository),
		shops:    new(MockShopRepository),
		searcher: new(MockSearcher),
		index:    new(MockIndexInvalidator),
		cache:    cache.New[any](),
	}
	f.service = NewCatalogService(f.store, f.shops, f.cache, f.searcher, f.index, CatalogConfig{}, zerolog.Nop())
	return f
}

func shopPredicates(shopID string) model.ProductPredicates {
	return model.ProductPredicates{ShopID: model.Ptr(shopID), IsDeleted: model.Ptr(false)}
}

func itemIDs(products []model.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func menu() []model.Product {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return []model.Product{
		{ID: "P1", ShopID: "S1", Name: "Phở Bò", Description: "Beef noodle soup", Price: 100, SoldCount: 10, Rating: 4.0, IsAvailable: true, CreatedAt: base},
		{ID: "P2", ShopID: "S1", Name: "Bún Chả", Description: "Grilled pork", Price: 50, SoldCount: 5, Rating: 4.8, IsAvailable: true, CreatedAt: base.Add(time.Hour)},
		{ID: "P3", ShopID: "S1", Name: "Trà Đá", Description: "Iced tea", Price: 50, SoldCount: 30, Rating: 4.0, IsAvailable: true, CreatedAt: base.Add(-time.Hour)},
	}
}

func TestCatalogService_FindByShopID_PriceSort(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	products := menu()[:2]
	f.store.On("Query", ctx, shopPredicates("S1")).Return(products, nil)

	page, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{Sort: model.SortPrice, Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P1"}, itemIDs(page.Items))
	assert.Equal(t, 2, page.Total)
	f.store.AssertExpectations(t)
}

func TestCatalogService_FindByShopID_Sorting(t *testing.T) {
	tests := []struct {
		name     string
		sort     model.SortOrder
		expected []string
	}{
		{name: "Newest first by default", sort: "", expected: []string{"P2", "P1", "P3"}},
		{name: "Newest", sort: model.SortNewest, expected: []string{"P2", "P1", "P3"}},
		{name: "Popular", sort: model.SortPopular, expected: []string{"P3", "P1", "P2"}},
		{name: "Rating keeps ties in store order", sort: model.SortRating, expected: []string{"P2", "P1", "P3"}},
		{name: "Price keeps ties in store order", sort: model.SortPrice, expected: []string{"P2", "P3", "P1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture()
			ctx := context.Background()
			f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil)

			page, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{Sort: tt.sort})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, itemIDs(page.Items))
			assert.Equal(t, 3, page.Total)
		})
	}
}

func TestCatalogService_FindByShopID_CacheRoundTrip(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil)
	f.index.On("Invalidate").Return()

	filter := model.QueryFilter{Page: 1, Limit: 20}

	first, err := f.service.FindByShopID(ctx, "S1", filter)
	require.NoError(t, err)

	second, err := f.service.FindByShopID(ctx, "S1", filter)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	f.store.AssertNumberOfCalls(t, "Query", 1)

	f.service.InvalidateShopCache("S1")

	_, err = f.service.FindByShopID(ctx, "S1", filter)
	require.NoError(t, err)
	f.store.AssertNumberOfCalls(t, "Query", 2)
	f.index.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestCatalogService_FindByShopID_CachedSetServesEverySort(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil).Once()

	byPrice, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{Sort: model.SortPrice})
	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P3", "P1"}, itemIDs(byPrice.Items))

	newest, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{Sort: model.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P1", "P3"}, itemIDs(newest.Items))

	popular, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{Sort: model.SortPopular, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, []string{"P3", "P1", "P2"}, itemIDs(popular.Items))

	f.store.AssertExpectations(t)
}

func TestCatalogService_FindByShopID_NonCacheable(t *testing.T) {
	tests := []struct {
		name   string
		filter model.QueryFilter
	}{
		{name: "Free-text query", filter: model.QueryFilter{Q: "pho"}},
		{name: "Second page", filter: model.QueryFilter{Page: 2}},
		{name: "Small page", filter: model.QueryFilter{Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture()
			ctx := context.Background()
			f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil)

			for i := 0; i < 2; i++ {
				_, err := f.service.FindByShopID(ctx, "S1", tt.filter)
				require.NoError(t, err)
			}

			f.store.AssertNumberOfCalls(t, "Query", 2)
			assert.Equal(t, 0, f.cache.Len())
		})
	}
}

func TestCatalogService_FindByShopID_Filters(t *testing.T) {
	tests := []struct {
		name     string
		filter   model.QueryFilter
		expected []string
		total    int
	}{
		{
			name:     "Substring on name is case insensitive",
			filter:   model.QueryFilter{Q: "BÚN"},
			expected: []string{"P2"},
			total:    1,
		},
		{
			name:     "Substring on description",
			filter:   model.QueryFilter{Q: "iced"},
			expected: []string{"P3"},
			total:    1,
		},
		{
			name:     "Price range",
			filter:   model.QueryFilter{MinPrice: model.Ptr(60.0), MaxPrice: model.Ptr(200.0)},
			expected: []string{"P1"},
			total:    1,
		},
		{
			name:     "Total counts every match before paging",
			filter:   model.QueryFilter{Sort: model.SortPopular, Page: 2, Limit: 2},
			expected: []string{"P2"},
			total:    3,
		},
		{
			name:     "Page beyond results",
			filter:   model.QueryFilter{Page: 5, Limit: 20},
			expected: []string{},
			total:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture()
			ctx := context.Background()
			f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil)

			page, err := f.service.FindByShopID(ctx, "S1", tt.filter)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, itemIDs(page.Items))
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestCatalogService_FindByShopID_EqualityFiltersReachStore(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	expected := model.ProductPredicates{
		ShopID:      model.Ptr("S1"),
		CategoryID:  model.Ptr("C1"),
		IsAvailable: model.Ptr(true),
		IsDeleted:   model.Ptr(false),
	}
	f.store.On("Query", ctx, expected).Return([]model.Product{}, nil).Once()

	page, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{
		CategoryID:  model.Ptr("C1"),
		IsAvailable: model.Ptr(true),
	})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)

	_, cached := f.cache.Get("shop:S1:products:cat:C1:avail:true")
	assert.True(t, cached)
	f.store.AssertExpectations(t)
}

func TestCatalogService_FindByShopID_StoreError(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	storeErr := errors.New("database error")
	f.store.On("Query", ctx, shopPredicates("S1")).Return(nil, storeErr)

	_, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{})

	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 0, f.cache.Len(), "errors are not cached")
}

func TestCatalogService_PagesPastTheEnd(t *testing.T) {
	tests := []struct {
		name string
		page int
	}{
		{name: "Just past the last page", page: 2},
		{name: "Page whose offset overflows", page: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture()
			ctx := context.Background()
			f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil)
			f.store.On("Query", ctx, model.ProductPredicates{IsAvailable: model.Ptr(true), IsDeleted: model.Ptr(false)}).Return(menu(), nil)
			f.shops.On("GetStatus", mock.Anything, "S1").Return(&model.ShopStatus{ShopID: "S1", Status: model.ShopStatusOpen, IsOpen: true}, nil)

			filter := model.QueryFilter{Page: tt.page, Limit: 20}

			page, err := f.service.FindByShopID(ctx, "S1", filter)
			require.NoError(t, err)
			assert.Empty(t, page.Items)
			assert.Equal(t, 3, page.Total)

			page, err = f.service.SearchGlobal(ctx, filter)
			require.NoError(t, err)
			assert.Empty(t, page.Items)
			assert.Equal(t, 3, page.Total)
		})
	}
}

func TestCatalogService_FindByShopID_MissingShop(t *testing.T) {
	f := newCatalogFixture()

	_, err := f.service.FindByShopID(context.Background(), "", model.QueryFilter{})

	assert.ErrorIs(t, err, model.ErrMissingShopID)
	f.store.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestCatalogService_CacheFaultsFailOpen(t *testing.T) {
	store := new(MockProductRepository)
	index := new(MockIndexInvalidator)
	ctx := context.Background()

	store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil)
	index.On("Invalidate").Return()

	svc := NewCatalogService(store, new(MockShopRepository), panickingCache{}, new(MockSearcher), index, CatalogConfig{}, zerolog.Nop())

	page, err := svc.FindByShopID(ctx, "S1", model.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	assert.NotPanics(t, func() { svc.InvalidateShopCache("S1") })
	index.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestCatalogService_UnexpectedCachedValue(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	f.cache.Set("shop:S1:products", "garbage", time.Minute)
	f.store.On("Query", ctx, shopPredicates("S1")).Return(menu(), nil).Once()

	page, err := f.service.FindByShopID(ctx, "S1", model.QueryFilter{})

	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	f.store.AssertExpectations(t)
}

func TestCatalogService_InvalidateShopCache_OnlyThatShop(t *testing.T) {
	f := newCatalogFixture()
	f.index.On("Invalidate").Return()

	f.cache.Set("shop:S1:products", 1, time.Minute)
	f.cache.Set("shop:S1:products:cat:C1", 2, time.Minute)
	f.cache.Set("shop:S10:products", 3, time.Minute)
	f.cache.Set("shop:S2:products", 4, time.Minute)

	f.service.InvalidateShopCache("S1")

	_, ok := f.cache.Get("shop:S1:products")
	assert.False(t, ok)
	_, ok = f.cache.Get("shop:S1:products:cat:C1")
	assert.False(t, ok)
	_, ok = f.cache.Get("shop:S10:products")
	assert.True(t, ok)
	_, ok = f.cache.Get("shop:S2:products")
	assert.True(t, ok)
	f.index.AssertExpectations(t)
}

func TestMenuCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		filter   model.QueryFilter
		expected string
	}{
		{name: "Base", filter: model.QueryFilter{}, expected: "shop:S1:products"},
		{name: "Category", filter: model.QueryFilter{CategoryID: model.Ptr("C1")}, expected: "shop:S1:products:cat:C1"},
		{name: "Availability", filter: model.QueryFilter{IsAvailable: model.Ptr(false)}, expected: "shop:S1:products:avail:false"},
		{
			name:     "Both, other filters ignored",
			filter:   model.QueryFilter{CategoryID: model.Ptr("C1"), IsAvailable: model.Ptr(true), Sort: model.SortPrice, MinPrice: model.Ptr(1.0)},
			expected: "shop:S1:products:cat:C1:avail:true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MenuCacheKey("S1", tt.filter))
		})
	}
}

func TestCatalogService_SearchGlobal_ShopStatus(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	products := []model.Product{
		{ID: "P1", ShopID: "S1", Name: "Open shop item", Price: 10, IsAvailable: true},
		{ID: "P2", ShopID: "S2", Name: "Closed shop item", Price: 10, IsAvailable: true},
		{ID: "P3", ShopID: "S3", Name: "Missing shop item", Price: 10, IsAvailable: true},
		{ID: "P4", ShopID: "S1", Name: "Another open item", Price: 20, IsAvailable: true},
		{ID: "P5", ShopID: "S4", Name: "Suspended shop item", Price: 10, IsAvailable: true},
	}
	f.store.On("Query", ctx, model.ProductPredicates{IsAvailable: model.Ptr(true), IsDeleted: model.Ptr(false)}).Return(products, nil)
	f.shops.On("GetStatus", mock.Anything, "S1").Return(&model.ShopStatus{ShopID: "S1", Status: model.ShopStatusOpen, IsOpen: true}, nil)
	f.shops.On("GetStatus", mock.Anything, "S2").Return(&model.ShopStatus{ShopID: "S2", Status: model.ShopStatusOpen, IsOpen: false}, nil)
	f.shops.On("GetStatus", mock.Anything, "S3").Return(nil, nil)
	f.shops.On("GetStatus", mock.Anything, "S4").Return(&model.ShopStatus{ShopID: "S4", Status: "SUSPENDED", IsOpen: true}, nil)

	page, err := f.service.SearchGlobal(ctx, model.QueryFilter{Sort: model.SortPrice})

	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P4"}, itemIDs(page.Items))
	assert.Equal(t, 2, page.Total)

	f.shops.AssertNumberOfCalls(t, "GetStatus", 4)
	assert.Equal(t, 0, f.cache.Len(), "the global feed is never cached")
}

func TestCatalogService_SearchGlobal_Filters(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	expected := model.ProductPredicates{
		ShopID:      model.Ptr("S1"),
		CategoryID:  model.Ptr("C1"),
		IsAvailable: model.Ptr(true),
		IsDeleted:   model.Ptr(false),
	}
	f.store.On("Query", ctx, expected).Return(menu(), nil)
	f.shops.On("GetStatus", mock.Anything, "S1").Return(&model.ShopStatus{ShopID: "S1", Status: model.ShopStatusOpen, IsOpen: true}, nil)

	page, err := f.service.SearchGlobal(ctx, model.QueryFilter{
		ShopID:     model.Ptr("S1"),
		CategoryID: model.Ptr("C1"),
		Q:          "o",
		MaxPrice:   model.Ptr(60.0),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, itemIDs(page.Items))
	assert.Equal(t, 1, page.Total)
}

func TestCatalogService_SearchGlobal_NoCandidatesSkipsShopLookups(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	f.store.On("Query", ctx, mock.Anything).Return([]model.Product{}, nil)

	page, err := f.service.SearchGlobal(ctx, model.QueryFilter{})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	f.shops.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
}

func TestCatalogService_SearchGlobal_Errors(t *testing.T) {
	t.Run("Store error", func(t *testing.T) {
		f := newCatalogFixture()
		ctx := context.Background()
		storeErr := errors.New("database error")
		f.store.On("Query", ctx, mock.Anything).Return(nil, storeErr)

		_, err := f.service.SearchGlobal(ctx, model.QueryFilter{})

		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("Shop lookup error", func(t *testing.T) {
		f := newCatalogFixture()
		ctx := context.Background()
		lookupErr := errors.New("shop table unavailable")
		f.store.On("Query", ctx, mock.Anything).Return(menu(), nil)
		f.shops.On("GetStatus", mock.Anything, "S1").Return(nil, lookupErr)

		_, err := f.service.SearchGlobal(ctx, model.QueryFilter{})

		assert.ErrorIs(t, err, lookupErr)
	})
}

func TestCatalogService_SearchGlobal_ManyShops(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	var products []model.Product
	for i := 0; i < 40; i++ {
		shopID := fmt.Sprintf("S%d", i%20)
		products = append(products, model.Product{ID: fmt.Sprintf("P%d", i), ShopID: shopID, IsAvailable: true})
		if i < 20 {
			f.shops.On("GetStatus", mock.Anything, shopID).
				Return(&model.ShopStatus{ShopID: shopID, Status: model.ShopStatusOpen, IsOpen: i%2 == 0}, nil)
		}
	}
	f.store.On("Query", ctx, mock.Anything).Return(products, nil)

	page, err := f.service.SearchGlobal(ctx, model.QueryFilter{Limit: 100})

	require.NoError(t, err)
	assert.Equal(t, 20, page.Total)
	f.shops.AssertNumberOfCalls(t, "GetStatus", 20)
}

func TestCatalogService_Search(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	items := []model.SearchIndexItem{{ID: "P1", Name: "Phở Bò"}}
	opts := model.SearchOptions{Limit: 5}
	f.searcher.On("Search", ctx, "pho", opts).Return(items, 1, nil)

	page, err := f.service.Search(ctx, "pho", opts)

	require.NoError(t, err)
	assert.Equal(t, items, page.Items)
	assert.Equal(t, 1, page.Total)
}

func TestCatalogService_Search_Error(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	indexErr := errors.New("index unavailable")
	f.searcher.On("Search", ctx, "pho", mock.Anything).Return(nil, 0, indexErr)

	_, err := f.service.Search(ctx, "pho", model.SearchOptions{})

	assert.ErrorIs(t, err, indexErr)
}

type recordingObserver struct {
	operations []string
}

func (r *recordingObserver) ObserveQuery(operation string, _ time.Duration) {
	r.operations = append(r.operations, operation)
}

func TestCatalogService_ObservesQueries(t *testing.T) {
	store := new(MockProductRepository)
	ctx := context.Background()
	store.On("Query", ctx, mock.Anything).Return([]model.Product{}, nil)

	obs := &recordingObserver{}
	svc := NewCatalogService(store, new(MockShopRepository), cache.New[any](), new(MockSearcher), new(MockIndexInvalidator), CatalogConfig{Observer: obs}, zerolog.Nop())

	_, err := svc.FindByShopID(ctx, "S1", model.QueryFilter{})
	require.NoError(t, err)
	_, err = svc.SearchGlobal(ctx, model.QueryFilter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"find_by_shop", "search_global"}, obs.operations)
}
