package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ejg/cestas/internal/datamodels/cart"
)

type cartRepo struct {
	db *gorm.DB
}

// NewCartRepository creates the cart repository.
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepo{db: db}
}

// ensureCart inserts the user's cart unless it exists and returns its row.
func ensureCart(tx *gorm.DB, userID string) (*cart.Cart, error) {
	c := cart.Cart{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit("Items").Create(&c).Error; err != nil {
		return nil, err
	}
	// The insert may have been skipped, so read the stored row back.
	var stored cart.Cart
	if err := tx.Where("user_id = ?", userID).Take(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *cartRepo) GetOrCreate(ctx context.Context, userID string) (*cart.Cart, error) {
	db := r.db.WithContext(ctx)
	c, err := ensureCart(db, userID)
	if err != nil {
		return nil, err
	}
	var full cart.Cart
	if err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		First(&full, "id = ?", c.ID).Error; err != nil {
		return nil, err
	}
	if full.Items == nil {
		full.Items = []cart.CartItem{}
	}
	return &full, nil
}

func (r *cartRepo) AddItem(ctx context.Context, userID, productID string, quantity int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}
		// Serialise concurrent adds to the same cart.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&cart.Cart{}, "id = ?", c.ID).Error; err != nil {
			return err
		}

		var item cart.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).Take(&item).Error
		switch {
		case err == nil:
			return tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Omit("Product").Create(&cart.CartItem{
				CartID:    c.ID,
				ProductID: productID,
				Quantity:  quantity,
			}).Error
		default:
			return err
		}
	})
}

func (r *cartRepo) RemoveItem(ctx context.Context, userID, itemID string) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.
		Where("id = ? AND cart_id IN (?)", itemID, db.Model(&cart.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&cart.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
