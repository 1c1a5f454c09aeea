package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Store(ctx context.Context, prefix, image string) (string, error) {
	args := m.Called(ctx, prefix, image)
	return args.String(0), args.Error(1)
}

// brokenCache fails every operation
type brokenCache struct{}

func (brokenCache) Get(context.Context) ([]catalog.Product, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, []catalog.Product, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) Invalidate(context.Context) error {
	return errors.New("connection refused")
}

var _ cache.ProductListCache = brokenCache{}

func mustProduct(t *testing.T, name, price string) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, "mugs", "", price, "")
	require.NoError(t, err)
	return *p
}

func TestProductService_Upload(t *testing.T) {
	t.Run("stores product and invalidates listing", func(t *testing.T) {
		repo := new(MockProductRepository)
		images := new(MockImageStore)
		listCache := cache.NewInMemoryProductCache()
		svc := NewProductService(repo, listCache, images, zap.NewNop())

		stale := []catalog.Product{mustProduct(t, "Old", "1")}
		require.NoError(t, listCache.Set(context.Background(), stale, time.Minute))

		images.On("Store", mock.Anything, "products", "data:image/png;base64,AAAA").
			Return("https://cdn.example.com/products/a.png", nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := svc.Upload(context.Background(), UploadProductInput{
			Name:        "  Blue Mug ",
			Category:    "kitchen  ware",
			Image:       "data:image/png;base64,AAAA",
			Price:       "249.5",
			Description: "Stoneware",
		})

		require.NoError(t, err)
		assert.Equal(t, "Blue Mug", resp.Name)
		assert.Equal(t, "Kitchen Ware", resp.Category)
		assert.Equal(t, "249.50", resp.Price)
		assert.Equal(t, "https://cdn.example.com/products/a.png", resp.Image)
		assert.NotEqual(t, uuid.Nil, resp.ID)

		_, ok, err := listCache.Get(context.Background())
		require.NoError(t, err)
		assert.False(t, ok, "upload must drop the cached listing")

		repo.AssertExpectations(t)
		images.AssertExpectations(t)
	})

	t.Run("image without data url skips store", func(t *testing.T) {
		repo := new(MockProductRepository)
		images := new(MockImageStore)
		svc := NewProductService(repo, nil, images, zap.NewNop())

		repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := svc.Upload(context.Background(), UploadProductInput{Name: "Plate", Price: "10"})
		require.NoError(t, err)
		assert.Empty(t, resp.Image)
		images.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid price", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, nil, new(MockImageStore), zap.NewNop())

		_, err := svc.Upload(context.Background(), UploadProductInput{Name: "Plate", Price: "-3"})
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("image store failure", func(t *testing.T) {
		repo := new(MockProductRepository)
		images := new(MockImageStore)
		svc := NewProductService(repo, nil, images, zap.NewNop())

		images.On("Store", mock.Anything, "products", "data:image/png;base64,AAAA").Return("", errors.New("s3 down"))

		_, err := svc.Upload(context.Background(), UploadProductInput{Name: "Plate", Price: "10", Image: "data:image/png;base64,AAAA"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store product image")
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("save failure", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, brokenCache{}, new(MockImageStore), zap.NewNop())

		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := svc.Upload(context.Background(), UploadProductInput{Name: "Plate", Price: "10"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "save product")
	})
}

func TestProductService_List(t *testing.T) {
	products := []catalog.Product{mustProduct(t, "Mug", "120"), mustProduct(t, "Bowl", "80.25")}

	t.Run("read through cache", func(t *testing.T) {
		repo := new(MockProductRepository)
		listCache := cache.NewInMemoryProductCache()
		svc := NewProductService(repo, listCache, nil, zap.NewNop(), WithCacheTTL(time.Minute))

		repo.On("FindAll", mock.Anything).Return(products, nil).Once()

		first, err := svc.List(context.Background())
		require.NoError(t, err)
		second, err := svc.List(context.Background())
		require.NoError(t, err)

		require.Len(t, first, 2)
		assert.Equal(t, first, second)
		assert.Equal(t, "80.25", first[1].Price)
		repo.AssertNumberOfCalls(t, "FindAll", 1)
	})

	t.Run("cache failure falls back to repository", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, brokenCache{}, nil, zap.NewNop())

		repo.On("FindAll", mock.Anything).Return(products, nil)

		got, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty catalog is an empty array", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, nil, nil, zap.NewNop())

		repo.On("FindAll", mock.Anything).Return([]catalog.Product{}, nil)

		got, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, nil, nil, zap.NewNop())

		repo.On("FindAll", mock.Anything).Return(nil, errors.New("db down"))

		_, err := svc.List(context.Background())
		require.Error(t, err)
	})
}

func TestProductService_PriceBook(t *testing.T) {
	mug := mustProduct(t, "Mug", "120")
	repo := new(MockProductRepository)
	svc := NewProductService(repo, nil, nil, zap.NewNop())

	repo.On("FindByIDs", mock.Anything, []uuid.UUID{mug.ID}).Return([]catalog.Product{mug}, nil)

	book, err := svc.PriceBook(context.Background(), []string{mug.ID.String(), "legacy-sku-42"})
	require.NoError(t, err)

	price, ok := book.Lookup(mug.ID.String())
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(120)))
	_, ok = book.Lookup("legacy-sku-42")
	assert.False(t, ok)

	t.Run("no product ids skips lookup", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, nil, nil, zap.NewNop())

		book, err := svc.PriceBook(context.Background(), []string{"abc"})
		require.NoError(t, err)
		assert.Empty(t, book)
		repo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
	})
}
