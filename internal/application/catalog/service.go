package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductInput describes a product create/update request
type ProductInput struct {
	Name        string
	Description string
	SKU         string
	Price       decimal.Decimal
	Currency    string
	Stock       int
	CategoryID  *uuid.UUID
}

// Service manages the product and category catalog
type Service struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	logger     *zap.Logger
}

// NewService creates the catalog service
func NewService(products catalog.ProductRepository, categories catalog.CategoryRepository, logger *zap.Logger) *Service {
	return &Service{products: products, categories: categories, logger: logger}
}

// CreateProduct adds a product to the catalog
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*catalog.Product, error) {
	if input.Price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must not be negative")
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	p := &catalog.Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              input.Name,
		Description:       input.Description,
		SKU:               input.SKU,
		Price:             input.Price.Round(2),
		Currency:          currency,
		Stock:             input.Stock,
		CategoryID:        input.CategoryID,
		Active:            true,
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct returns one product
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

// ListProducts returns a page of active products
func (s *Service) ListProducts(ctx context.Context, filter shared.Filter) (shared.Paginated[*catalog.Product], error) {
	return s.products.List(ctx, filter)
}

// UpdateProduct applies changes to an existing product
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must not be negative")
	}
	p.Name = input.Name
	p.Description = input.Description
	p.Price = input.Price.Round(2)
	p.Stock = input.Stock
	p.CategoryID = input.CategoryID
	if input.Currency != "" {
		p.Currency = input.Currency
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product from the catalog
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

// CreateCategory adds a category
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*catalog.Category, error) {
	c := &catalog.Category{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
	}
	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns all categories
func (s *Service) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	return s.categories.List(ctx)
}

// DeleteCategory removes a category
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}
