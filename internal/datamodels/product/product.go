package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/datamodels/category"
)

func init() {
	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product catalog item. Price is the current price; orders keep their own copy.
type Product struct {
	ID          string             `gorm:"primaryKey;size:36" json:"id"`
	Name        string             `gorm:"size:128;index;not null" json:"name"`
	Description string             `gorm:"size:1024" json:"description"`
	Price       decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int64              `gorm:"not null" json:"stock"`
	Image       string             `gorm:"size:512" json:"image"`
	CategoryID  string             `gorm:"size:36;index;not null" json:"categoryId"`
	Category    *category.Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt   time.Time          `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Filter narrows product listings.
type Filter struct {
	CategoryID string
	// Name matches products whose name contains it.
	Name string
}

// Repository product storage.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Product, error)
	List(ctx context.Context, f Filter) ([]*Product, error)
	ListNewest(ctx context.Context, limit int) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	// Delete removes the product after dropping its cart items and detaching
	// order items, all in one transaction.
	Delete(ctx context.Context, id string) error
}
