// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/datamodels/category"
	"github.com/ejg/cestas/internal/datamodels/product"
	"github.com/ejg/cestas/internal/datamodels/user"
	"github.com/ejg/cestas/internal/repository/mysql"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	conn, err := mysql.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, name string, role user.Role) *user.User {
	t.Helper()
	u := &user.User{
		Name:     name,
		Email:    uuid.NewString() + "@example.com",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(u).Error)
	return u
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *gorm.DB, name string) *category.Category {
	t.Helper()
	c := &category.Category{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateProduct inserts a product priced at price (a decimal string).
func CreateProduct(t *testing.T, db *gorm.DB, cat *category.Category, name, price string) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       10,
		Image:       "/img/" + name + ".png",
		CategoryID:  cat.ID,
	}
	require.NoError(t, db.Omit("Category").Create(p).Error)
	return p
}
