package mysql

import (
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/datamodels/cart"
	"github.com/ejg/cestas/internal/datamodels/category"
	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/datamodels/product"
	"github.com/ejg/cestas/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init opens the shared GORM instance and migrates the schema.
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = Open(Dialector(cfg))
		if err != nil {
			zap.L().Fatal("failed to connect mysql", zap.Error(err))
		}
	})
	return db
}

// Dialector returns the MySQL dialector for cfg.
func Dialector(cfg *config.MySQLConfig) gorm.Dialector {
	return mysql.Open(cfg.DSN)
}

// Open connects through any dialector and runs Migrate. Tests pass an
// in-memory SQLite dialector here.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table. Parents come before children.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&user.User{},
		&category.Category{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.Item{},
		&order.File{},
	)
}

// DB returns the shared instance.
func DB() *gorm.DB {
	return db
}
