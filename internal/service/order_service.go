package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/datamodels/product"
	"github.com/ejg/cestas/internal/notify"
)

const notifyTimeout = 10 * time.Second

// LineItem one requested checkout line. Price is what the client saw; when
// present it must equal the current catalog price.
type LineItem struct {
	ProductID string           `json:"productId"`
	Quantity  int64            `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

type OrderService struct {
	orders     order.Repository
	products   product.Repository
	notifier   notify.Notifier
	adminPhone string

	wg sync.WaitGroup
}

// NewOrderService notifier defaults to notify.LogNotifier. An empty
// adminPhone disables notifications.
func NewOrderService(orders order.Repository, products product.Repository, notifier notify.Notifier, adminPhone string) *OrderService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &OrderService{
		orders:     orders,
		products:   products,
		notifier:   notifier,
		adminPhone: adminPhone,
	}
}

// CreateOrder turns items into a PENDING order priced from the catalog and
// empties the caller's cart in the same transaction. The owner notification
// is sent in the background and never affects the result.
func (s *OrderService) CreateOrder(ctx context.Context, id *auth.Identity, items []LineItem) (*order.Order, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	lines, err := s.priceLines(ctx, items)
	if err != nil {
		return nil, err
	}

	o := &order.Order{UserID: id.UserID, Status: order.StatusPending, Items: lines}
	if err := s.orders.CreateWithItems(ctx, o); err != nil {
		GetMonitor().RecordOrderFailure()
		if errors.Is(err, order.ErrPriceChanged) {
			return nil, invalid("%s", err.Error())
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	GetMonitor().RecordOrderCreated()

	created, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("order created",
		zap.String("order_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("total", created.Total.StringFixed(2)))

	s.dispatch(created, id.Name)
	return created, nil
}

// priceLines validates the request and captures the catalog price of each line.
func (s *OrderService) priceLines(ctx context.Context, items []LineItem) ([]order.Item, error) {
	if len(items) == 0 {
		return nil, invalid("order has no items")
	}
	for i, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, invalid("item %d: productId is required", i)
		}
		if it.Quantity < 1 {
			return nil, invalid("item %d: quantity must be at least 1", i)
		}
		if it.Price != nil && it.Price.IsNegative() {
			return nil, invalid("item %d: price must not be negative", i)
		}
	}

	ids := lo.Uniq(lo.Map(items, func(it LineItem, _ int) string { return strings.TrimSpace(it.ProductID) }))
	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := lo.KeyBy(found, func(p *product.Product) string { return p.ID })

	lines := make([]order.Item, 0, len(items))
	for i, it := range items {
		p, ok := catalog[strings.TrimSpace(it.ProductID)]
		if !ok {
			return nil, invalid("item %d: unknown product %q", i, it.ProductID)
		}
		if it.Price != nil && !it.Price.Equal(p.Price) {
			return nil, invalid("item %d: price of %q changed to %s", i, p.Name, p.Price.StringFixed(2))
		}
		pid := p.ID
		lines = append(lines, order.Item{
			ProductID:   &pid,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Price:       p.Price,
		})
	}
	return lines, nil
}

func (s *OrderService) dispatch(o *order.Order, fallbackName string) {
	if s.adminPhone == "" {
		return
	}
	name := fallbackName
	if o.User != nil && o.User.Name != "" {
		name = o.User.Name
	}
	msg := notify.Build(o, name, s.adminPhone)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, msg); err != nil {
			GetMonitor().RecordNotificationFailed()
			zap.L().Warn("order notification failed", zap.String("order_id", msg.OrderID), zap.Error(err))
			return
		}
		GetMonitor().RecordNotificationSent()
	}()
}

// Wait blocks until in-flight notifications finish.
func (s *OrderService) Wait() {
	s.wg.Wait()
}

// ListOrders returns the caller's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, id *auth.Identity) ([]*order.Order, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, id.UserID)
}

func (s *OrderService) GetOrder(ctx context.Context, id *auth.Identity, orderID string) (*order.Order, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// UpdateStatus changes the status of an order. Only status and updatedAt change.
func (s *OrderService) UpdateStatus(ctx context.Context, id *auth.Identity, orderID, status string) (*order.Order, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	next, ok := order.ParseStatus(status)
	if !ok {
		return nil, invalid("status %q is not one of %s", status, strings.Join(order.StatusNames(), ", "))
	}
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !order.CanTransition(current.Status, next) {
		return nil, invalid("cannot move order from %s to %s", current.Status, next)
	}
	if _, err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, notFound(err, "order")
	}
	zap.L().Info("order status changed",
		zap.String("order_id", orderID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
		zap.String("by", id.UserID))
	return s.orders.GetByID(ctx, orderID)
}

// SearchOrders matches query against order ids and customer names. An empty
// query returns every order.
func (s *OrderService) SearchOrders(ctx context.Context, id *auth.Identity, query string) ([]*order.Order, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.orders.Search(ctx, strings.TrimSpace(query))
}
