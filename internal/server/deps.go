package server

import (
	radix "github.com/mediocregopher/radix/v3"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/middleware"
	"github.com/ejg/cestas/internal/notify"
	"github.com/ejg/cestas/internal/repository/mysql"
	"github.com/ejg/cestas/internal/service"
	"github.com/ejg/cestas/internal/storage"
)

// Deps services shared by both HTTP apps.
type Deps struct {
	Config  *config.Config
	Users   *service.UserService
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
	Files   *service.OrderFileService
	Limiter *middleware.Limiter
}

// NewDeps wires repositories and services. cache and notifier may be nil.
func NewDeps(cfg *config.Config, db *gorm.DB, cache radix.Client, notifier notify.Notifier, store storage.Store) *Deps {
	userRepo := mysql.NewUserRepository(db)
	categoryRepo := mysql.NewCategoryRepository(db)
	productRepo := mysql.NewProductRepository(db)
	cartRepo := mysql.NewCartRepository(db)
	orderRepo := mysql.NewOrderRepository(db)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokens := auth.NewTokenCache(cache, ring, secondsOf(cfg.Auth.TokenCacheTTLSeconds))

	return &Deps{
		Config:  cfg,
		Users:   service.NewUserService(userRepo, &cfg.JWT, tokens),
		Catalog: service.NewCatalogService(productRepo, categoryRepo, cache),
		Carts:   service.NewCartService(cartRepo, productRepo),
		Orders:  service.NewOrderService(orderRepo, productRepo, notifier, cfg.Notify.AdminPhone),
		Files:   service.NewOrderFileService(orderRepo, store),
		Limiter: middleware.NewLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec),
	}
}
