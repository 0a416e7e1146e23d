package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/datamodels/category"
	"github.com/ejg/cestas/internal/datamodels/product"
)

const (
	featuredKey   = "catalog:featured"
	featuredTTL   = 60 * time.Second
	featuredLimit = 3
)

// ProductInput fields of a new product. Price and Stock are pointers so an
// absent field is told apart from zero.
type ProductInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	Image       string           `json:"image"`
	CategoryID  string           `json:"categoryId"`
}

// ProductPatch fields to change; nil means unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	Image       *string          `json:"image"`
	CategoryID  *string          `json:"categoryId"`
}

type CatalogService struct {
	products   product.Repository
	categories category.Repository
	cache      radix.Client
}

// NewCatalogService cache may be nil, which disables the featured cache.
func NewCatalogService(products product.Repository, categories category.Repository, cache radix.Client) *CatalogService {
	return &CatalogService{products: products, categories: categories, cache: cache}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*category.Category, error) {
	return s.categories.ListAll(ctx)
}

// CreateCategory admin only; names are unique.
func (s *CatalogService) CreateCategory(ctx context.Context, id *auth.Identity, name string) (*category.Category, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name is required")
	}
	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, invalid("category %q already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &category.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListProducts public listing, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, f product.Filter) ([]*product.Product, error) {
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	f.Name = strings.TrimSpace(f.Name)
	return s.products.List(ctx, f)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

// Featured returns the newest products, served from Redis when possible.
func (s *CatalogService) Featured(ctx context.Context) ([]*product.Product, error) {
	if cached, ok := s.cachedFeatured(); ok {
		return cached, nil
	}
	list, err := s.products.ListNewest(ctx, featuredLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if body, err := json.Marshal(list); err == nil {
			if err := s.cache.Do(radix.FlatCmd(nil, "SETEX", featuredKey, int64(featuredTTL/time.Second), body)); err != nil {
				GetMonitor().RecordRedisError()
				zap.L().Warn("featured cache set failed", zap.Error(err))
			}
		}
	}
	return list, nil
}

func (s *CatalogService) cachedFeatured() ([]*product.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	var raw string
	if err := s.cache.Do(radix.Cmd(&raw, "GET", featuredKey)); err != nil {
		GetMonitor().RecordRedisError()
		zap.L().Warn("featured cache get failed", zap.Error(err))
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var list []*product.Product
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	return list, true
}

func (s *CatalogService) invalidateFeatured() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Do(radix.Cmd(nil, "DEL", featuredKey)); err != nil {
		GetMonitor().RecordRedisError()
		zap.L().Warn("featured cache invalidate failed", zap.Error(err))
	}
}

func (s *CatalogService) AdminListProducts(ctx context.Context, id *auth.Identity) ([]*product.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.products.List(ctx, product.Filter{})
}

func (s *CatalogService) AdminGetProduct(ctx context.Context, id *auth.Identity, productID string) (*product.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

func (s *CatalogService) CreateProduct(ctx context.Context, id *auth.Identity, in ProductInput) (*product.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	switch {
	case in.Price == nil:
		return nil, invalid("price is required")
	case in.Stock == nil:
		return nil, invalid("stock is required")
	}
	p := &product.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		Stock:       *in.Stock,
		Image:       strings.TrimSpace(in.Image),
		CategoryID:  strings.TrimSpace(in.CategoryID),
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateFeatured()
	return s.products.GetByID(ctx, p.ID)
}

// UpdateProduct applies patch. Existing orders keep their captured prices.
func (s *CatalogService) UpdateProduct(ctx context.Context, id *auth.Identity, productID string, patch ProductPatch) (*product.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Image != nil {
		p.Image = strings.TrimSpace(*patch.Image)
	}
	if patch.CategoryID != nil {
		p.CategoryID = strings.TrimSpace(*patch.CategoryID)
		p.Category = nil
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateFeatured()
	return s.products.GetByID(ctx, p.ID)
}

// DeleteProduct drops the product, its cart lines and its order item links.
// Order items keep their name and price.
func (s *CatalogService) DeleteProduct(ctx context.Context, id *auth.Identity, productID string) (*product.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	s.invalidateFeatured()
	return p, nil
}

func (s *CatalogService) validate(ctx context.Context, p *product.Product) error {
	switch {
	case p.Name == "":
		return invalid("name is required")
	case p.Description == "":
		return invalid("description is required")
	case p.Image == "":
		return invalid("image is required")
	case p.CategoryID == "":
		return invalid("categoryId is required")
	case p.Price.IsNegative():
		return invalid("price must not be negative")
	case p.Stock < 0:
		return invalid("stock must not be negative")
	}
	if _, err := s.categories.GetByID(ctx, p.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("unknown category")
		}
		return err
	}
	return nil
}
