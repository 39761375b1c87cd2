package service

import (
	"context"
	"time"

	"catalog-engine/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Query(ctx context.Context, pred model.ProductPredicates) ([]model.Product, error) {
	args := m.Called(ctx, pred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	return m.Called(ctx, id, available).Error(0)
}

func (m *MockProductRepository) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) CreateBatch(ctx context.Context, products []model.Product) error {
	return m.Called(ctx, products).Error(0)
}

// MockShopRepository is a mock implementation of ShopRepository.
type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) GetStatus(ctx context.Context, shopID string) (*model.ShopStatus, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShopStatus), args.Error(1)
}

func (m *MockShopRepository) Upsert(ctx context.Context, shop *model.ShopStatus) error {
	return m.Called(ctx, shop).Error(0)
}

// MockIndexInvalidator is a mock implementation of IndexInvalidator.
type MockIndexInvalidator struct {
	mock.Mock
}

func (m *MockIndexInvalidator) Invalidate() {
	m.Called()
}

// MockSearcher is a mock implementation of ProductSearcher.
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, opts model.SearchOptions) ([]model.SearchIndexItem, int, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.SearchIndexItem), args.Int(1), args.Error(2)
}

// MockShopCacheInvalidator is a mock implementation of ShopCacheInvalidator.
type MockShopCacheInvalidator struct {
	mock.Mock
}

func (m *MockShopCacheInvalidator) InvalidateShopCache(shopID string) {
	m.Called(shopID)
}

// panickingCache simulates a broken cache implementation.
type panickingCache struct{}

func (panickingCache) Get(string) (any, bool)         { panic("cache unavailable") }
func (panickingCache) Set(string, any, time.Duration) { panic("cache unavailable") }
func (panickingCache) InvalidateByPrefix(string) int  { panic("cache unavailable") }
