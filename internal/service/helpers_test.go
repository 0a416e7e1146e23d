package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/datamodels/user"
	"github.com/ejg/cestas/internal/notify"
	"github.com/ejg/cestas/internal/repository/mysql"
	"github.com/ejg/cestas/internal/storage"
	"github.com/ejg/cestas/internal/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, m notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, m)
	return n.err
}

func (n *recordingNotifier) sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

type env struct {
	db       *gorm.DB
	users    *UserService
	catalog  *CatalogService
	carts    *CartService
	orders   *OrderService
	files    *OrderFileService
	notifier *recordingNotifier
	store    *storage.LocalStore
	admin    *auth.Identity
	customer *auth.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads", 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	products := mysql.NewProductRepository(db)
	orders := mysql.NewOrderRepository(db)
	n := &recordingNotifier{}

	e := &env{
		db:       db,
		users:    NewUserService(mysql.NewUserRepository(db), &config.JWTConfig{Secret: "test", TTLHours: 1}, nil),
		catalog:  NewCatalogService(products, mysql.NewCategoryRepository(db), nil),
		carts:    NewCartService(mysql.NewCartRepository(db), products),
		orders:   NewOrderService(orders, products, n, "5516992025527"),
		files:    NewOrderFileService(orders, store),
		notifier: n,
		store:    store,
		admin:    auth.FromUser(testutil.CreateUser(t, db, "Admin", user.RoleAdmin)),
		customer: auth.FromUser(testutil.CreateUser(t, db, "Maria", user.RoleCustomer)),
	}
	t.Cleanup(e.orders.Wait)
	return e
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stock(n int64) *int64 {
	return &n
}
