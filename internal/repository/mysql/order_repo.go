package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ejg/cestas/internal/datamodels/cart"
	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/datamodels/product"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository creates the order repository.
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// withDetails preloads everything an order view shows.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items").
		Preload("Items.Product").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *orderRepo) CreateWithItems(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPrices(tx, o.Items); err != nil {
			return err
		}
		if err := tx.Omit("User", "Files").Create(o).Error; err != nil {
			return err
		}

		var c cart.Cart
		err := tx.Where("user_id = ?", o.UserID).Take(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error
	})
}

// checkPrices locks the products behind items and compares their current
// price with the captured one. Unknown products are left to the foreign key.
func checkPrices(tx *gorm.DB, items []order.Item) error {
	ids := lo.Uniq(lo.FilterMap(items, func(it order.Item, _ int) (string, bool) {
		if it.ProductID == nil {
			return "", false
		}
		return *it.ProductID, true
	}))
	if len(ids) == 0 {
		return nil
	}
	var locked []*product.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "name", "price").
		Where("id IN ?", ids).
		Find(&locked).Error; err != nil {
		return err
	}
	current := lo.KeyBy(locked, func(p *product.Product) string { return p.ID })
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		p, ok := current[*it.ProductID]
		if ok && !p.Price.Equal(it.Price) {
			return fmt.Errorf("%w: %s is now %s", order.ErrPriceChanged, p.Name, p.Price.StringFixed(2))
		}
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := withDetails(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	var list []*order.Order
	if err := withDetails(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) Search(ctx context.Context, query string) ([]*order.Order, error) {
	pattern := containsPattern(query)
	var list []*order.Order
	if err := withDetails(r.db.WithContext(ctx)).
		Select("orders.*").
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Where("orders.id"+likeClause+" OR users.name"+likeClause, pattern, pattern).
		Order("orders.created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&o).Update("status", status).Error; err != nil {
			return err
		}
		o.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) AddFile(ctx context.Context, f *order.File) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *orderRepo) DeleteFile(ctx context.Context, orderID, fileID string) (*order.File, error) {
	var f order.File
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND order_id = ?", fileID, orderID).Take(&f).Error; err != nil {
			return err
		}
		return tx.Delete(&f).Error
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *orderRepo) ListFiles(ctx context.Context, orderID string) ([]order.File, error) {
	list := []order.File{}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
