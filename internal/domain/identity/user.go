package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Role controls access to administrative endpoints
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User is an account that can authenticate and place orders
type User struct {
	shared.BaseEntity
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	Role         Role `gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
}

// TableName returns the database table name
func (User) TableName() string {
	return "users"
}

// Repository persists users
type Repository interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
