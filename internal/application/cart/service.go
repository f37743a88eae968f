package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Service manages the user's shopping cart
type Service struct {
	carts    cart.Repository
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewService creates the cart service
func NewService(carts cart.Repository, products catalog.ProductRepository, logger *zap.Logger) *Service {
	return &Service{carts: carts, products: products, logger: logger}
}

// Get returns the user's cart, creating an empty one on first access
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	c = cart.NewCart(userID)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds a product to the cart with its price snapshotted
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Cart, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock(quantity) {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock for "+p.Name)
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.AddItem(productID, quantity, p.Price); err != nil {
		return nil, err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem sets a line's quantity; zero removes the line
func (s *Service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateItem(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.Cart, error) {
	return s.UpdateItem(ctx, userID, productID, 0)
}
