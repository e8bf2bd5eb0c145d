package service

import (
	"context"
	"testing"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t, config.FulfillmentSequential, true)
	ctx := context.Background()
	dash := NewDashboardService(f.movements, f.orders)

	// Valuation after processing: 3 × 5 + 100 × 5.
	a := f.seedProduct(t, "DASH-A", 4)
	f.seedProduct(t, "DASH-B", 100)
	order := f.createOrder(t, "ORD-D1", model.OrderOutbound, itemFor(a, 1))
	f.createOrder(t, "ORD-D2", model.OrderInbound, itemFor(a, 1))
	_, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
	require.NoError(t, err)

	stats, err := dash.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.EqualValues(t, 1, stats.LowStockCount)
	assert.InDelta(t, 515.0, stats.TotalValuation, 0.001)
	assert.EqualValues(t, 1, stats.OrdersByStatus[model.StatusPending])
	assert.EqualValues(t, 1, stats.OrdersByStatus[model.StatusCompleted])
	assert.EqualValues(t, 0, stats.OrdersByStatus[model.StatusCancelled])

	movements, err := dash.GetMovements(ctx, &a.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -1, movements[0].Delta)
}
