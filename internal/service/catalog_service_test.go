package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/datamodels/product"
	"github.com/ejg/cestas/internal/testutil"
)

func TestCategories(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreateCategory(ctx, e.customer, "Cestas")
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := e.catalog.CreateCategory(ctx, e.admin, " Cestas ")
	require.NoError(t, err)
	assert.Equal(t, "Cestas", c.Name)

	_, err = e.catalog.CreateCategory(ctx, e.admin, "Cestas")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.catalog.CreateCategory(ctx, e.admin, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := e.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateProductValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, e.db, "Cestas")

	valid := ProductInput{
		Name:        "Cesta Média",
		Description: "Arroz, feijão e óleo",
		Price:       price("89.90"),
		Stock:       stock(5),
		Image:       "/img/media.png",
		CategoryID:  cat.ID,
	}

	_, err := e.catalog.CreateProduct(ctx, nil, valid)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.catalog.CreateProduct(ctx, e.customer, valid)
	assert.ErrorIs(t, err, ErrForbidden)

	broken := map[string]func(in *ProductInput){
		"no name":          func(in *ProductInput) { in.Name = "" },
		"no description":   func(in *ProductInput) { in.Description = " " },
		"no image":         func(in *ProductInput) { in.Image = "" },
		"no category":      func(in *ProductInput) { in.CategoryID = "" },
		"unknown category": func(in *ProductInput) { in.CategoryID = "nope" },
		"no price":         func(in *ProductInput) { in.Price = nil },
		"no stock":         func(in *ProductInput) { in.Stock = nil },
		"negative price":   func(in *ProductInput) { in.Price = price("-1") },
		"negative stock":   func(in *ProductInput) { in.Stock = stock(-1) },
	}
	for name, mutate := range broken {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := e.catalog.CreateProduct(ctx, e.admin, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	p, err := e.catalog.CreateProduct(ctx, e.admin, valid)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("89.90").Equal(p.Price))
	require.NotNil(t, p.Category)
	assert.Equal(t, "Cestas", p.Category.Name)
}

func TestUpdateProductPatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, e.db, "Cestas")
	other := testutil.CreateCategory(t, e.db, "Extras")
	p := testutil.CreateProduct(t, e.db, cat, "Cesta", "10.00")

	name := "Cesta Nova"
	got, err := e.catalog.UpdateProduct(ctx, e.admin, p.ID, ProductPatch{Name: &name, Stock: stock(0), CategoryID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, "Cesta Nova", got.Name)
	assert.Zero(t, got.Stock)
	assert.True(t, decimal.RequireFromString("10").Equal(got.Price))
	require.NotNil(t, got.Category)
	assert.Equal(t, "Extras", got.Category.Name)

	neg := decimal.RequireFromString("-0.01")
	_, err = e.catalog.UpdateProduct(ctx, e.admin, p.ID, ProductPatch{Price: &neg})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.catalog.UpdateProduct(ctx, e.admin, "missing", ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.catalog.UpdateProduct(ctx, e.customer, p.ID, ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListAndFeatured(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, e.db, "Cestas")
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"Arroz", "Feijão", "Óleo", "Café"} {
		p := testutil.CreateProduct(t, e.db, cat, name, "1.00")
		require.NoError(t, e.db.Model(p).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	featured, err := e.catalog.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 3)
	assert.Equal(t, "Café", featured[0].Name)

	list, err := e.catalog.ListProducts(ctx, product.Filter{Name: " caf "})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = e.catalog.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.catalog.AdminListProducts(ctx, e.customer)
	assert.ErrorIs(t, err, ErrForbidden)
	all, err := e.catalog.AdminListProducts(ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDeleteProductKeepsOrders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, e.db, "Cestas")
	p := testutil.CreateProduct(t, e.db, cat, "Cesta", "12.00")

	o, err := e.orders.CreateOrder(ctx, e.customer, []LineItem{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)
	_, err = e.carts.Add(ctx, e.customer, p.ID, 1)
	require.NoError(t, err)

	_, err = e.catalog.DeleteProduct(ctx, e.customer, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := e.catalog.DeleteProduct(ctx, e.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = e.catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.catalog.DeleteProduct(ctx, e.admin, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := e.carts.Get(ctx, e.customer)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	got, err := e.orders.GetOrder(ctx, e.admin, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Cesta", got.Items[0].ProductName)
	assert.Nil(t, got.Items[0].ProductID)
	assert.Equal(t, "24.00", got.Total.StringFixed(2))

	var items int64
	require.NoError(t, e.db.Model(&order.Item{}).Count(&items).Error)
	assert.EqualValues(t, 1, items)
}
