package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	productImagePrefix = "products"
	defaultCacheTTL    = 5 * time.Minute
)

// ImageStore persists an uploaded image and returns the reference to store
type ImageStore interface {
	Store(ctx context.Context, prefix, image string) (string, error)
}

// ProductService handles product upload and listing
type ProductService struct {
	repo     catalog.ProductRepository
	cache    cache.ProductListCache
	images   ImageStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// ProductServiceOption configures a ProductService
type ProductServiceOption func(*ProductService)

// WithCacheTTL sets how long the product listing stays cached
func WithCacheTTL(ttl time.Duration) ProductServiceOption {
	return func(s *ProductService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewProductService creates a new product service.
// A nil cache disables listing caching.
func NewProductService(
	repo catalog.ProductRepository,
	listCache cache.ProductListCache,
	images ImageStore,
	logger *zap.Logger,
	opts ...ProductServiceOption,
) *ProductService {
	s := &ProductService{
		repo:     repo,
		cache:    listCache,
		images:   images,
		cacheTTL: defaultCacheTTL,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores a new product and drops the cached listing
func (s *ProductService) Upload(ctx context.Context, input UploadProductInput) (_ *ProductResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "upload")
	defer telemetry.EndSpan(span, &err)

	product, err := catalog.NewProduct(input.Name, input.Category, "", input.Price.String(), input.Description)
	if err != nil {
		return nil, err
	}

	if input.Image != "" {
		image, err := s.images.Store(ctx, productImagePrefix, input.Image)
		if err != nil {
			return nil, fmt.Errorf("store product image: %w", err)
		}
		product.SetImage(image)
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	s.invalidate(ctx)

	span.SetAttributes(attribute.String("product.id", product.ID.String()))
	logger.Ctx(ctx, s.logger).Info("Product uploaded",
		zap.String("product_id", product.ID.String()),
		zap.String("category", product.Category),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns every product, serving from the cache when it is warm
func (s *ProductService) List(ctx context.Context) (_ []ProductResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "list")
	defer telemetry.EndSpan(span, &err)

	log := logger.Ctx(ctx, s.logger)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			log.Warn("Product cache read failed, falling back to database", zap.Error(err))
		case ok:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return ToProductResponses(cached), nil
		}
	}

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, products, s.cacheTTL); err != nil {
			log.Warn("Failed to populate product cache", zap.Error(err))
		}
	}

	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("product.count", len(products)))
	return ToProductResponses(products), nil
}

// PriceBook loads unit prices for the given product references.
// References that are not product IDs are skipped; they keep their client totals.
func (s *ProductService) PriceBook(ctx context.Context, refs []string) (checkout.PriceBook, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(ref)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	book := make(checkout.PriceBook, len(ids))
	if len(ids) == 0 {
		return book, nil
	}

	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	for _, p := range products {
		book[p.ID.String()] = p.Price
	}
	return book, nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Ctx(ctx, s.logger).Warn("Failed to invalidate product cache", zap.Error(err))
	}
}
