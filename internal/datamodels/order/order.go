package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/datamodels/product"
	"github.com/ejg/cestas/internal/datamodels/user"
)

// ErrPriceChanged is returned by CreateWithItems when a captured price no
// longer matches the catalog at commit time.
var ErrPriceChanged = errors.New("product price changed")

// Order a completed checkout. Only Status and Files change after creation.
type Order struct {
	ID     string     `gorm:"primaryKey;size:36" json:"id"`
	UserID string     `gorm:"size:36;index;not null" json:"userId"`
	User   *user.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status Status     `gorm:"size:16;index;not null;default:PENDING" json:"status"`
	Items  []Item     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Files  []File     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"files"`
	// Total is recomputed from Items on every read and never stored.
	Total     decimal.Decimal `gorm:"-" json:"total"`
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	return nil
}

// AfterFind runs after preloads, so Items are present when requested.
func (o *Order) AfterFind(*gorm.DB) error {
	if o.Items == nil {
		o.Items = []Item{}
	}
	if o.Files == nil {
		o.Files = []File{}
	}
	o.RecomputeTotal()
	return nil
}

// RecomputeTotal sets Total to the sum of captured price times quantity.
func (o *Order) RecomputeTotal() decimal.Decimal {
	o.Total = lo.Reduce(o.Items, func(sum decimal.Decimal, it Item, _ int) decimal.Decimal {
		return sum.Add(it.LineTotal())
	}, decimal.Zero)
	return o.Total
}

// Item order line. Price is captured at checkout; ProductName keeps the line
// readable after the product is deleted, when ProductID becomes NULL.
type Item struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	OrderID     string           `gorm:"size:36;index;not null" json:"orderId"`
	ProductID   *string          `gorm:"size:36;index" json:"productId"`
	Product     *product.Product `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	ProductName string           `gorm:"size:128;not null" json:"productName"`
	Quantity    int64            `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (Item) TableName() string { return "order_items" }

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// LineTotal price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// File uploaded document attached to an order.
type File struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string    `gorm:"size:36;index;not null" json:"orderId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	Type      string    `gorm:"size:128" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func (File) TableName() string { return "order_files" }

func (f *File) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Repository order storage.
type Repository interface {
	// CreateWithItems inserts the order and its items and empties the owner's
	// cart in a single transaction. Referenced products are locked and their
	// prices compared with the captured ones; a mismatch is ErrPriceChanged.
	CreateWithItems(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// Search matches query against the order id and the owner's name.
	Search(ctx context.Context, query string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)

	AddFile(ctx context.Context, f *File) error
	// DeleteFile removes fileID only when it belongs to orderID.
	DeleteFile(ctx context.Context, orderID, fileID string) (*File, error)
	ListFiles(ctx context.Context, orderID string) ([]File, error)
}
