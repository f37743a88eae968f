package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Category groups products
type Category struct {
	shared.BaseEntity
	Name        string `gorm:"not null;uniqueIndex"`
	Description string
}

// TableName returns the database table name
func (Category) TableName() string {
	return "categories"
}

// Product is a sellable catalog item
type Product struct {
	shared.BaseAggregateRoot
	Name        string          `gorm:"not null;index"`
	Description string
	SKU         string          `gorm:"not null;uniqueIndex"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Stock       int             `gorm:"not null;default:0"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Active      bool            `gorm:"not null;default:true"`
}

// TableName returns the database table name
func (Product) TableName() string {
	return "products"
}

// InStock reports whether the requested quantity is available
func (p *Product) InStock(quantity int) bool {
	return p.Active && p.Stock >= quantity
}

// ProductRepository persists products
type ProductRepository interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	List(ctx context.Context, filter shared.Filter) (shared.Paginated[*Product], error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	Save(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
