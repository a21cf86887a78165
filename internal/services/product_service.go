package services

import (
	"context"
	"strings"
	"time"

	"orderhub/internal/caching"
	"orderhub/internal/common"
	"orderhub/internal/metrics"
	"orderhub/internal/models"
	"orderhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Sku         string          `json:"sku" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Category    string          `json:"category" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"isActive"`
}

// UpdateProductInput replaces the mutable catalog fields of an existing sku.
type UpdateProductInput struct {
	Sku         string          `json:"-" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Category    string          `json:"category" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"isActive"`
}

type ProductService interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	// Update fails with PRODUCT_NOT_FOUND for unknown skus and evicts the cached copy.
	Update(ctx context.Context, input UpdateProductInput) (*models.Product, error)
	// GetBySku fails with PRODUCT_NOT_FOUND for unknown skus.
	GetBySku(ctx context.Context, sku string) (*models.Product, error)
	// FindBySku returns nil, nil for unknown skus.
	FindBySku(ctx context.Context, sku string) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	// WarmCache loads every product into the cache and returns how many were stored.
	WarmCache(ctx context.Context) (int, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	cache       caching.ProductCache
	validator   *common.Validator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewProductService accepts a nil cache, in which case every read goes to the database.
func NewProductService(productRepo repositories.ProductRepository, cache caching.ProductCache, validator *common.Validator, m *metrics.Metrics, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       cache,
		validator:   validator,
		metrics:     m,
		logger:      logger.With().Str("component", "product_service").Logger(),
	}
}

func (s *productService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:          uuid.New(),
		Sku:         strings.TrimSpace(input.Sku),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		IsActive:    input.IsActive == nil || *input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.store(ctx, product)
	return product, nil
}

func (s *productService) Update(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	input.Sku = strings.TrimSpace(input.Sku)
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetBySku(ctx, input.Sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, common.ProductNotFound(input.Sku)
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.UpdatedAt = time.Now().UTC()
	if err := product.Validate(); err != nil {
		return nil, err
	}

	found, err := s.productRepo.Update(ctx, product)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.ProductNotFound(input.Sku)
	}
	s.evict(ctx, product.Sku)
	return product, nil
}

func (s *productService) GetBySku(ctx context.Context, sku string) (*models.Product, error) {
	product, err := s.FindBySku(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, common.ProductNotFound(sku)
	}
	return product, nil
}

// FindBySku reads through the cache. Cache failures degrade to a database read.
func (s *productService) FindBySku(ctx context.Context, sku string) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, sku)
		switch {
		case err != nil:
			s.metrics.ProductCacheReads.WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Str("sku", sku).Msg("product cache read failed")
		case cached != nil:
			s.metrics.ProductCacheReads.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			s.metrics.ProductCacheReads.WithLabelValues("miss").Inc()
		}
	}

	product, err := s.productRepo.GetBySku(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product != nil {
		s.store(ctx, product)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.productRepo.List(ctx, limit, offset)
}

func (s *productService) WarmCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	const pageSize = 500
	stored := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.productRepo.List(ctx, pageSize, offset)
		if err != nil {
			return stored, errors.Wrap(err, "warm product cache")
		}
		for _, product := range page {
			if err := s.cache.SetProduct(ctx, product); err != nil {
				return stored, errors.Wrap(err, "warm product cache")
			}
			stored++
		}
		if len(page) < pageSize {
			return stored, nil
		}
	}
}

func (s *productService) store(ctx context.Context, product *models.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warn().Err(err).Str("sku", product.Sku).Msg("product cache write failed")
	}
}

// evict drops the cached copy so the next read loads the new row.
func (s *productService) evict(ctx context.Context, sku string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteProduct(ctx, sku); err != nil {
		s.logger.Warn().Err(err).Str("sku", sku).Msg("product cache eviction failed")
	}
}
