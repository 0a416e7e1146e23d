package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/datamodels/product"
)

// Cart one per user, emptied at checkout and never deleted.
type Cart struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CartItem has no captured price; checkout reads the live product price.
type CartItem struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	CartID    string           `gorm:"size:36;index;not null" json:"cartId"`
	ProductID string           `gorm:"size:36;index;not null" json:"productId"`
	Product   *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int64            `gorm:"not null" json:"quantity"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Repository cart storage.
type Repository interface {
	// GetOrCreate returns the user's cart with items and products, creating it when missing.
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	// AddItem adds quantity of the product, merging with an existing line.
	AddItem(ctx context.Context, userID, productID string, quantity int64) error
	// RemoveItem deletes itemID from the user's cart and reports whether it existed there.
	RemoveItem(ctx context.Context, userID, itemID string) (bool, error)
}
