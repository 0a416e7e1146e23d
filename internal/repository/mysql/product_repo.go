package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/datamodels/cart"
	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository creates the product repository.
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	var list []*product.Product
	if len(ids) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) List(ctx context.Context, f product.Filter) ([]*product.Product, error) {
	var list []*product.Product
	query := r.db.WithContext(ctx).Preload("Category")
	if f.CategoryID != "" {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.Name != "" {
		query = query.Where("name"+likeClause, containsPattern(f.Name))
	}
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListNewest(ctx context.Context, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = 3
	}
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Save(p).Error
}

// Delete drops cart lines for the product, detaches order lines (they keep
// their name and price snapshot) and finally removes the product.
func (r *productRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&order.Item{}).
			Where("product_id = ?", id).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&product.Product{}, "id = ?", id).Error
	})
}
