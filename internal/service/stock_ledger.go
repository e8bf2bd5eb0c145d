package service

import (
	"context"
	"fmt"

	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/observability"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockAdjustment is one signed change to a product's on-hand quantity.
// ProductRef is the product UUID or, failing to parse as one, its SKU.
type StockAdjustment struct {
	ProductRef string
	Delta      int
	Reason     model.MovementReason
	OrderID    *uuid.UUID
	Note       string
	Actor      events.Actor
}

// AdjustmentResult is the product state after an adjustment and the audit row written for it.
type AdjustmentResult struct {
	Product  *model.Product
	Movement *model.StockMovement
}

// StockLedger is the only writer of Product.Quantity.
type StockLedger interface {
	// AdjustStock applies one adjustment in its own transaction and announces it.
	AdjustStock(ctx context.Context, adj StockAdjustment) (*AdjustmentResult, error)
	// AdjustStockTx applies one adjustment inside tx. Nothing is announced;
	// the owner of tx calls Announce after commit.
	AdjustStockTx(tx *gorm.DB, adj StockAdjustment) (*AdjustmentResult, error)
	Announce(ctx context.Context, actor events.Actor, results ...*AdjustmentResult)
}

type stockLedger struct {
	db            *gorm.DB
	productRepo   repository.ProductRepository
	movementRepo  repository.StockMovementRepository
	publisher     events.Publisher
	allowNegative bool
	log           *zap.Logger
}

func NewStockLedger(db *gorm.DB, pRepo repository.ProductRepository, mRepo repository.StockMovementRepository,
	publisher events.Publisher, allowNegative bool, log *zap.Logger) StockLedger {
	return &stockLedger{
		db:            db,
		productRepo:   pRepo,
		movementRepo:  mRepo,
		publisher:     publisher,
		allowNegative: allowNegative,
		log:           log,
	}
}

func (s *stockLedger) AdjustStock(ctx context.Context, adj StockAdjustment) (*AdjustmentResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "stock_ledger.adjust")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.ref", adj.ProductRef),
		attribute.Int("stock.delta", adj.Delta),
		attribute.String("stock.reason", string(adj.Reason)),
	)

	var result *AdjustmentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.AdjustStockTx(tx, adj)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("stock.quantity_after", result.Movement.QuantityAfter))
	s.Announce(ctx, adj.Actor, result)
	return result, nil
}

func (s *stockLedger) AdjustStockTx(tx *gorm.DB, adj StockAdjustment) (*AdjustmentResult, error) {
	if adj.Delta == 0 {
		return nil, invalid("stock delta must not be zero")
	}
	if adj.Reason == "" {
		adj.Reason = model.ReasonManual
	}

	// Row lock makes the read-modify-write below atomic per product.
	product, err := s.productRepo.LockByRef(tx, adj.ProductRef)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	before := product.Quantity
	after := before + adj.Delta
	if !s.allowNegative && adj.Delta < 0 && after < 0 {
		return nil, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, product.SKU, before, -adj.Delta)
	}

	if err := s.productRepo.UpdateStock(tx, product.ID, after, adj.Actor.ID); err != nil {
		return nil, err
	}
	product.Quantity = after
	product.UpdatedBy = adj.Actor.ID

	movement := &model.StockMovement{
		ProductID:      product.ID,
		ProductSKU:     product.SKU,
		Delta:          adj.Delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         adj.Reason,
		OrderID:        adj.OrderID,
		Note:           adj.Note,
	}
	movement.CreatedBy = adj.Actor.ID
	movement.UpdatedBy = adj.Actor.ID
	if err := s.movementRepo.Create(tx, movement); err != nil {
		return nil, err
	}

	return &AdjustmentResult{Product: product, Movement: movement}, nil
}

func (s *stockLedger) Announce(ctx context.Context, actor events.Actor, results ...*AdjustmentResult) {
	for _, r := range results {
		verb := "added"
		amount := r.Movement.Delta
		if amount < 0 {
			verb = "removed"
			amount = -amount
		}

		evt := events.New(events.TypeStockUpdate, events.ActionStockAdjusted, r.Product.ID.String(), map[string]interface{}{
			"product": map[string]interface{}{
				"id":   r.Product.ID,
				"sku":  r.Product.SKU,
				"name": r.Product.Name,
			},
			"delta":     r.Movement.Delta,
			"old_stock": r.Movement.QuantityBefore,
			"new_stock": r.Movement.QuantityAfter,
			"reason":    r.Movement.Reason,
			"order_id":  r.Movement.OrderID,
			"low_stock": r.Product.IsLowStock(),
		})
		evt.User = &actor
		evt.Message = fmt.Sprintf("%s %s %d %s of '%s'", actorName(actor), verb, amount, r.Product.Unit, r.Product.Name)

		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.log.Warn("Failed to publish stock event", zap.String("sku", r.Product.SKU), zap.Error(err))
		}
	}
}

func actorName(a events.Actor) string {
	switch {
	case a.Name != "":
		return a.Name
	case a.ID != "":
		return a.ID
	}
	return "system"
}
