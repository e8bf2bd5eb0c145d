package service

import (
	"context"
	"sync"
	"testing"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderComputesTotal(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()

	order, err := f.orderSvc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "ORD-1",
		Type:        model.OrderOutbound,
		Items: []model.OrderItem{
			{ProductID: "A-1", ProductName: "A", SKU: "A-1", Quantity: 2, Price: 10},
			{ProductID: "B-1", ProductName: "B", SKU: "B-1", Quantity: 3, Price: 5},
		},
	}, alice)
	require.NoError(t, err)

	assert.Equal(t, 35.0, order.TotalAmount)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, alice.ID, order.CreatedBy)

	stored, err := f.orderSvc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 35.0, stored.TotalAmount)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "A-1", stored.Items[0].SKU)
	assert.Equal(t, []string{events.ActionOrderCreated}, f.pub.actions())
}

func TestCreateOrderKeepsExplicitTotal(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)

	zero := 0.0
	order, err := f.orderSvc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber: "ORD-FREE",
		Type:        model.OrderInbound,
		Items:       []model.OrderItem{{ProductID: "A-1", ProductName: "A", SKU: "A-1", Quantity: 4, Price: 10}},
		TotalAmount: &zero,
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.TotalAmount)
}

func TestCreateOrderRejectsDuplicateNumber(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	p := f.seedProduct(t, "DUP-1", 10)
	first := f.createOrder(t, "ORD-7", model.OrderInbound, itemFor(p, 1))

	_, err := f.orderSvc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber: "ORD-7",
		Type:        model.OrderOutbound,
		Items:       []model.OrderItem{itemFor(p, 2)},
	}, alice)

	assert.ErrorIs(t, err, ErrDuplicateOrderNumber)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := f.orderSvc.GetOrderByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderInbound, stored.Type)
	assert.Equal(t, first.TotalAmount, stored.TotalAmount)
	assert.Equal(t, first.Items, stored.Items)

	all, err := f.orderSvc.GetOrders(context.Background(), OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()

	cases := map[string]*CreateOrderRequest{
		"no items":     {OrderNumber: "X", Type: model.OrderInbound},
		"bad type":     {OrderNumber: "X", Type: "sideways", Items: []model.OrderItem{{ProductID: "a", ProductName: "a", SKU: "a", Quantity: 1}}},
		"zero qty":     {OrderNumber: "X", Type: model.OrderInbound, Items: []model.OrderItem{{ProductID: "a", ProductName: "a", SKU: "a", Quantity: 0}}},
		"blank number": {OrderNumber: "  ", Type: model.OrderInbound, Items: []model.OrderItem{{ProductID: "a", ProductName: "a", SKU: "a", Quantity: 1}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.orderSvc.CreateOrder(ctx, req, alice)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProcessInboundOrderAddsStock(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	p := f.seedProduct(t, "IN-1", 10)
	order := f.createOrder(t, "ORD-IN", model.OrderInbound, itemFor(p, 5))

	processed, err := f.orderSvc.ProcessOrder(context.Background(), order.ID, "bob", alice)
	require.NoError(t, err)

	assert.Equal(t, 15, f.quantity(t, p))
	assert.Equal(t, model.StatusCompleted, processed.Status)
	assert.Equal(t, "bob", processed.ProcessedBy)
	assert.NotNil(t, processed.ProcessedAt)

	movements, err := f.movements.FindAll(context.Background(), &p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 5, movements[0].Delta)
	assert.Equal(t, 10, movements[0].QuantityBefore)
	assert.Equal(t, 15, movements[0].QuantityAfter)
	assert.Equal(t, model.ReasonOrderInbound, movements[0].Reason)
	require.NotNil(t, movements[0].OrderID)
	assert.Equal(t, order.ID, *movements[0].OrderID)

	assert.Equal(t, []string{
		events.ActionOrderCreated,
		events.ActionStockAdjusted,
		events.ActionOrderProcessed,
	}, f.pub.actions())
}

func TestProcessOutboundOrderRemovesStock(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	p := f.seedProduct(t, "OUT-1", 10)
	order := f.createOrder(t, "ORD-OUT", model.OrderOutbound, itemFor(p, 5))

	_, err := f.orderSvc.ProcessOrder(context.Background(), order.ID, "bob", alice)
	require.NoError(t, err)
	assert.Equal(t, 5, f.quantity(t, p))
}

func TestProcessOrderAppliesItemsInOrder(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	a := f.seedProduct(t, "SEQ-A", 10)
	b := f.seedProduct(t, "SEQ-B", 20)
	order := f.createOrder(t, "ORD-SEQ", model.OrderOutbound, itemFor(a, 3), itemFor(b, 7))

	_, err := f.orderSvc.ProcessOrder(context.Background(), order.ID, "bob", alice)
	require.NoError(t, err)

	assert.Equal(t, 7, f.quantity(t, a))
	assert.Equal(t, 13, f.quantity(t, b))

	var stock []events.Event
	for _, e := range f.pub.events {
		if e.Action == events.ActionStockAdjusted {
			stock = append(stock, e)
		}
	}
	require.Len(t, stock, 2)
	assert.Equal(t, a.ID.String(), stock[0].Key)
	assert.Equal(t, b.ID.String(), stock[1].Key)
}

func TestProcessMissingOrder(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)

	_, err := f.orderSvc.ProcessOrder(context.Background(), uuid.New(), "bob", alice)

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	movements, err := f.movements.FindAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, movements)
	assert.Empty(t, f.pub.actions())
}

func TestReceivingWidgetsBySKU(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	widget := f.seedProduct(t, "WGT-001", 100)

	order, err := f.orderSvc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "ORD-100",
		Type:        model.OrderInbound,
		Items:       []model.OrderItem{{ProductID: "WGT-001", ProductName: "Widget", SKU: "WGT-001", Quantity: 20, Price: 5}},
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.TotalAmount)

	_, err = f.orderSvc.ProcessOrder(ctx, order.ID, "alice", alice)
	require.NoError(t, err)

	assert.Equal(t, 120, f.quantity(t, widget))
	stored, err := f.orderSvc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Equal(t, "alice", stored.ProcessedBy)
	require.NotNil(t, stored.ProcessedAt)
}

func TestSequentialFailureKeepsEarlierAdjustments(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	a := f.seedProduct(t, "PART-A", 10)
	missing := model.OrderItem{ProductID: "NOPE-404", ProductName: "Ghost", SKU: "NOPE-404", Quantity: 1, Price: 1}
	order := f.createOrder(t, "ORD-PART", model.OrderInbound, itemFor(a, 5), missing)

	_, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Equal(t, 15, f.quantity(t, a))
	stored, err := f.orderSvc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Empty(t, stored.ProcessedBy)
	assert.Nil(t, stored.ProcessedAt)
}

func TestSequentialModeDoesNotGuardStatus(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	p := f.seedProduct(t, "TWICE-1", 10)
	order := f.createOrder(t, "ORD-TWICE", model.OrderInbound, itemFor(p, 5))

	_, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	require.NoError(t, err)
	_, err = f.orderSvc.ProcessOrder(ctx, order.ID, "carol", alice)
	require.NoError(t, err)

	assert.Equal(t, 20, f.quantity(t, p))
}

func TestStrictFailureRollsBack(t *testing.T) {
	f := newFixture(t, config.FulfillmentStrict, true)
	ctx := context.Background()
	a := f.seedProduct(t, "ROLL-A", 10)
	missing := model.OrderItem{ProductID: "NOPE-404", ProductName: "Ghost", SKU: "NOPE-404", Quantity: 1, Price: 1}
	order := f.createOrder(t, "ORD-ROLL", model.OrderInbound, itemFor(a, 5), missing)

	_, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Equal(t, 10, f.quantity(t, a))
	movements, err := f.movements.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, movements)

	stored, err := f.orderSvc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.NotContains(t, f.pub.actions(), events.ActionStockAdjusted)
}

func TestStrictRejectsCompletedOrder(t *testing.T) {
	f := newFixture(t, config.FulfillmentStrict, true)
	ctx := context.Background()
	p := f.seedProduct(t, "ONCE-1", 10)
	order := f.createOrder(t, "ORD-ONCE", model.OrderOutbound, itemFor(p, 4))

	processed, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, processed.Status)

	_, err = f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 6, f.quantity(t, p))
}

func TestStrictRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t, config.FulfillmentStrict, true)
	ctx := context.Background()
	p := f.seedProduct(t, "CXL-1", 10)
	order := f.createOrder(t, "ORD-CXL", model.OrderOutbound, itemFor(p, 4))

	cancelled := model.StatusCancelled
	_, err := f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{Status: &cancelled}, alice)
	require.NoError(t, err)

	_, err = f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 10, f.quantity(t, p))
}

func TestOutboundBeyondStock(t *testing.T) {
	t.Run("allowed by default", func(t *testing.T) {
		f := newFixture(t, config.FulfillmentSequential, true)
		p := f.seedProduct(t, "OVER-1", 10)
		order := f.createOrder(t, "ORD-OVER", model.OrderOutbound, itemFor(p, 25))

		_, err := f.orderSvc.ProcessOrder(context.Background(), order.ID, "bob", alice)
		require.NoError(t, err)
		assert.Equal(t, -15, f.quantity(t, p))
	})

	t.Run("rejected when negative stock is disabled", func(t *testing.T) {
		f := newFixture(t, config.FulfillmentSequential, false)
		p := f.seedProduct(t, "OVER-2", 10)
		order := f.createOrder(t, "ORD-OVER", model.OrderOutbound, itemFor(p, 25))

		_, err := f.orderSvc.ProcessOrder(context.Background(), order.ID, "bob", alice)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 10, f.quantity(t, p))
	})
}

func TestConcurrentAdjustmentsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	p := f.seedProduct(t, "RACE-1", 50)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		delta := 1
		if i%2 == 1 {
			delta = -2
		}
		wg.Add(1)
		go func(delta int) {
			defer wg.Done()
			_, err := f.ledger.AdjustStock(context.Background(), StockAdjustment{
				ProductRef: p.SKU,
				Delta:      delta,
				Actor:      alice,
			})
			errs <- err
		}(delta)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 10 × +1 and 10 × −2
	assert.Equal(t, 40, f.quantity(t, p))
	movements, err := f.movements.FindAll(context.Background(), &p.ID)
	require.NoError(t, err)
	assert.Len(t, movements, workers)
}

func TestLedgerRejectsZeroDelta(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	p := f.seedProduct(t, "ZERO-1", 5)

	_, err := f.ledger.AdjustStock(context.Background(), StockAdjustment{ProductRef: p.ID.String(), Actor: alice})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 5, f.quantity(t, p))
}

func TestUpdateOrder(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	p := f.seedProduct(t, "UPD-1", 10)
	order := f.createOrder(t, "ORD-UPD", model.OrderInbound, itemFor(p, 1))
	assert.Equal(t, 5.0, order.TotalAmount)

	notes := "dock 4"
	updated, err := f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{
		Items: []model.OrderItem{itemFor(p, 3)},
		Notes: &notes,
	}, alice)
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.TotalAmount)
	assert.Equal(t, "dock 4", updated.Notes)

	_, err = f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{Items: []model.OrderItem{}}, alice)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orderSvc.UpdateOrder(ctx, uuid.New(), &UpdateOrderRequest{Notes: &notes}, alice)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStrictUpdateEnforcesTransitions(t *testing.T) {
	f := newFixture(t, config.FulfillmentStrict, true)
	ctx := context.Background()
	p := f.seedProduct(t, "TRN-1", 10)
	order := f.createOrder(t, "ORD-TRN", model.OrderInbound, itemFor(p, 1))

	// Completing by update would skip the stock effect.
	completed := model.StatusCompleted
	_, err := f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{Status: &completed}, alice)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	processing := model.StatusProcessing
	_, err = f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{Status: &processing}, alice)
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{Status: &completed}, alice)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	pending := model.StatusPending
	_, err = f.orderSvc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{Status: &pending}, alice)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	processed, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, processed.Status)
	assert.Equal(t, 11, f.quantity(t, p))
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	p := f.seedProduct(t, "DEL-1", 10)
	order := f.createOrder(t, "ORD-DEL", model.OrderInbound, itemFor(p, 1))

	require.NoError(t, f.orderSvc.DeleteOrder(ctx, order.ID, alice))

	_, err := f.orderSvc.GetOrderByID(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, f.orderSvc.DeleteOrder(ctx, order.ID, alice), ErrOrderNotFound)
}

func TestGetOrdersFilters(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	p := f.seedProduct(t, "FLT-1", 10)
	in := f.createOrder(t, "ORD-F1", model.OrderInbound, itemFor(p, 1))
	f.createOrder(t, "ORD-F2", model.OrderOutbound, itemFor(p, 1))
	_, err := f.orderSvc.ProcessOrder(ctx, in.ID, "bob", alice)
	require.NoError(t, err)

	all, err := f.orderSvc.GetOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	outbound, err := f.orderSvc.GetOrders(ctx, OrderFilter{Type: model.OrderOutbound})
	require.NoError(t, err)
	require.Len(t, outbound, 1)
	assert.Equal(t, "ORD-F2", outbound[0].OrderNumber)

	completed, err := f.orderSvc.GetOrders(ctx, OrderFilter{Status: model.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "ORD-F1", completed[0].OrderNumber)

	_, err = f.orderSvc.GetOrders(ctx, OrderFilter{Type: "sideways"})
	assert.ErrorIs(t, err, ErrValidation)
}
