package service

import (
	"context"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/datamodels/cart"
	"github.com/ejg/cestas/internal/datamodels/product"
)

type CartService struct {
	carts    cart.Repository
	products product.Repository
}

func NewCartService(carts cart.Repository, products product.Repository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the caller's cart, creating an empty one on first use.
func (s *CartService) Get(ctx context.Context, id *auth.Identity) (*cart.Cart, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, id.UserID)
}

// Add puts quantity units of a product in the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, id *auth.Identity, productID string, quantity int64) (*cart.Cart, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, invalid("productId is required")
	}
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	if err := s.carts.AddItem(ctx, id.UserID, productID, quantity); err != nil {
		return nil, err
	}
	return s.carts.GetOrCreate(ctx, id.UserID)
}

// Remove deletes a line of the caller's own cart.
func (s *CartService) Remove(ctx context.Context, id *auth.Identity, itemID string) (*cart.Cart, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	ok, err := s.carts.RemoveItem(ctx, id.UserID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.carts.GetOrCreate(ctx, id.UserID)
}
