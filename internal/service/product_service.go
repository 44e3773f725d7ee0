package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// ListParams carries the raw listing inputs from the presentation layer.
// SortBy is a free-form string; unrecognized values sort by name.
type ListParams struct {
	Search   string
	Category string
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	ListProducts(ctx context.Context, params ListParams) ([]*domain.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type productService struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(repo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		repo:   repo,
		logger: logger,
	}
}

// ListProducts returns one page of the filtered, sorted catalog plus the total
// match count. Blank or whitespace-only search and category are treated as
// absent filters.
func (s *productService) ListProducts(ctx context.Context, params ListParams) ([]*domain.Product, int, error) {
	search := strings.TrimSpace(params.Search)
	category := strings.TrimSpace(params.Category)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	s.logger.Info("Listing products",
		zap.String("search", search),
		zap.String("category", category),
		zap.String("sort_by", params.SortBy),
		zap.Bool("sort_desc", params.SortDesc),
		zap.Int("page", page),
	)

	products, total, err := s.repo.List(ctx, repository.ListQuery{
		Search:   search,
		Category: category,
		SortBy:   repository.SortField(params.SortBy),
		SortDesc: params.SortDesc,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Info("Products listed",
		zap.Int("count", len(products)),
		zap.Int("total", total),
	)

	return products, total, nil
}

// GetByID retrieves a product by ID. A missing product is not an error: the
// result is simply nil.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Create persists a new product. The identifier and both timestamps are
// assigned here; anything the caller supplied for them is discarded.
func (s *productService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()
	product.ID = uuid.New()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Created product",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)

	return product, nil
}

// Update replaces the name, description, price and category of an existing
// product, preserving its creation timestamp. Returns
// repository.ErrProductNotFound when no product has the given ID.
func (s *productService) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	existing, err := s.repo.FindByID(ctx, product.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product for update: %w", err)
	}

	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Category = product.Category
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Updated product",
		zap.String("product_id", existing.ID.String()),
		zap.String("name", existing.Name),
	)

	return existing, nil
}

// Delete removes a product and reports whether it existed. A missing product
// yields false, not an error.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("Product not found for deletion", zap.String("product_id", id.String()))
			return false, nil
		}
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Deleted product", zap.String("product_id", id.String()))
	return true, nil
}

// ListCategories returns the distinct categories in use, sorted ascending.
func (s *productService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
