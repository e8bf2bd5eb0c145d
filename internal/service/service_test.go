package service

import (
	"context"
	"sync"
	"testing"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var alice = events.Actor{ID: "user-alice", Name: "alice", Email: "alice@example.com"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	orders    repository.OrderRepository
	movements repository.StockMovementRepository
	users     repository.UserRepository
	pub       *recordingPublisher

	ledger     StockLedger
	orderSvc   OrderService
	productSvc ProductService
}

func newFixture(t *testing.T, mode config.FulfillmentMode, allowNegative bool) *fixture {
	t.Helper()

	db := testutil.NewDB(t, &model.User{}, &model.Product{}, &model.Order{}, &model.StockMovement{})
	f := &fixture{
		db:        db,
		products:  repository.NewProductRepo(db),
		orders:    repository.NewOrderRepo(db),
		movements: repository.NewStockMovementRepo(db),
		users:     repository.NewUserRepo(db),
		pub:       &recordingPublisher{},
	}
	log := zap.NewNop()
	f.ledger = NewStockLedger(db, f.products, f.movements, f.pub, allowNegative, log)
	f.orderSvc = NewOrderService(db, f.orders, f.ledger, f.pub, mode, log)
	f.productSvc = NewProductService(db, f.products, f.ledger, f.pub, log)
	return f
}

// seedProduct inserts a product with stock already on hand, bypassing the ledger.
func (f *fixture) seedProduct(t *testing.T, sku string, qty int) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:         sku,
		Name:        "Product " + sku,
		Category:    "General",
		Quantity:    qty,
		MinQuantity: model.DefaultMinQuantity,
		Unit:        model.DefaultUnit,
		Price:       5,
	}
	require.NoError(t, f.products.Create(f.db, p))
	return p
}

func (f *fixture) quantity(t *testing.T, p *model.Product) int {
	t.Helper()
	fresh, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return fresh.Quantity
}

func (f *fixture) createOrder(t *testing.T, number string, typ model.OrderType, items ...model.OrderItem) *model.Order {
	t.Helper()
	order, err := f.orderSvc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber: number,
		Type:        typ,
		Items:       items,
	}, alice)
	require.NoError(t, err)
	return order
}

func itemFor(p *model.Product, qty int) model.OrderItem {
	return model.OrderItem{
		ProductID:   p.ID.String(),
		ProductName: p.Name,
		SKU:         p.SKU,
		Quantity:    qty,
		Price:       p.Price,
	}
}
