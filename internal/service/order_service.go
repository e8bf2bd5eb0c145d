package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-warehouse-ws/internal/config"
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

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest, actor events.Actor) (*model.Order, error)
	GetOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor events.Actor) (*model.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID, actor events.Actor) error
	ProcessOrder(ctx context.Context, id uuid.UUID, processedBy string, actor events.Actor) (*model.Order, error)
}

type CreateOrderRequest struct {
	OrderNumber string             `json:"order_number" validate:"required,max=100"`
	Type        model.OrderType    `json:"type" validate:"required,oneof=inbound outbound"`
	Status      *model.OrderStatus `json:"status" validate:"omitempty,oneof=pending processing completed cancelled"`
	Items       []model.OrderItem  `json:"items" validate:"required,min=1,dive"`
	TotalAmount *float64           `json:"total_amount" validate:"omitempty,gte=0"`
	Notes       string             `json:"notes"`
	CreatedBy   string             `json:"created_by"`
	ProcessedBy string             `json:"processed_by"`
}

// UpdateOrderRequest is a partial update; nil fields are left unchanged.
type UpdateOrderRequest struct {
	Status      *model.OrderStatus `json:"status" validate:"omitempty,oneof=pending processing completed cancelled"`
	Items       []model.OrderItem  `json:"items" validate:"omitempty,dive"`
	TotalAmount *float64           `json:"total_amount" validate:"omitempty,gte=0"`
	Notes       *string            `json:"notes"`
	ProcessedBy *string            `json:"processed_by"`
}

// OrderFilter selects the list variant; Type wins over Status when both are set.
type OrderFilter struct {
	Type   model.OrderType
	Status model.OrderStatus
}

type orderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	ledger    StockLedger
	publisher events.Publisher
	mode      config.FulfillmentMode
	log       *zap.Logger
}

func NewOrderService(db *gorm.DB, oRepo repository.OrderRepository, ledger StockLedger,
	publisher events.Publisher, mode config.FulfillmentMode, log *zap.Logger) OrderService {
	return &orderService{
		db:        db,
		orderRepo: oRepo,
		ledger:    ledger,
		publisher: publisher,
		mode:      mode,
		log:       log,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, actor events.Actor) (*model.Order, error) {
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	if err := validationError(req); err != nil {
		return nil, err
	}

	exists, err := s.orderRepo.ExistsByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateOrderNumber
	}

	order := &model.Order{
		OrderNumber: req.OrderNumber,
		Type:        req.Type,
		Status:      model.StatusPending,
		Items:       normalizeItems(req.Items),
		Notes:       strings.TrimSpace(req.Notes),
		ProcessedBy: req.ProcessedBy,
	}
	if req.Status != nil {
		order.Status = *req.Status
	}
	order.TotalAmount = totalOrComputed(req.TotalAmount, order.Items)
	order.CreatedBy = firstNonEmpty(req.CreatedBy, actor.ID)
	order.UpdatedBy = actor.ID

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, err
	}

	s.announce(ctx, events.ActionOrderCreated, order, actor,
		fmt.Sprintf("%s created %s order %s", actorName(actor), order.Type, order.OrderNumber))
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	switch {
	case filter.Type != "":
		if !filter.Type.Valid() {
			return nil, invalid("unknown order type %q", filter.Type)
		}
		return s.orderRepo.FindByType(ctx, filter.Type)
	case filter.Status != "":
		if !filter.Status.Valid() {
			return nil, invalid("unknown order status %q", filter.Status)
		}
		return s.orderRepo.FindByStatus(ctx, filter.Status)
	}
	return s.orderRepo.FindAll(ctx)
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor events.Actor) (*model.Order, error) {
	if err := validationError(req); err != nil {
		return nil, err
	}
	if req.Items != nil && len(req.Items) == 0 {
		return nil, invalid("items must not be empty")
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}

	if req.Status != nil {
		if s.mode == config.FulfillmentStrict && !order.Status.CanTransitionTo(*req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, *req.Status)
		}
		order.Status = *req.Status
	}
	if req.Items != nil {
		order.Items = normalizeItems(req.Items)
		order.TotalAmount = totalOrComputed(req.TotalAmount, order.Items)
	} else if req.TotalAmount != nil {
		order.TotalAmount = *req.TotalAmount
	}
	if req.Notes != nil {
		order.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.ProcessedBy != nil {
		order.ProcessedBy = *req.ProcessedBy
	}
	order.UpdatedBy = actor.ID

	if err := s.orderRepo.Save(s.db.WithContext(ctx), order); err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}

	s.announce(ctx, events.ActionOrderUpdated, order, actor,
		fmt.Sprintf("%s updated order %s", actorName(actor), order.OrderNumber))
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID, actor events.Actor) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrOrderNotFound)
	}

	evt := events.New(events.TypeOrderUpdate, events.ActionOrderDeleted, id.String(), map[string]interface{}{"id": id})
	evt.User = &actor
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("Failed to publish order event", zap.String("order_id", id.String()), zap.Error(err))
	}
	return nil
}

// ProcessOrder completes an order and applies one stock adjustment per line
// item, in item order: +quantity for inbound orders, -quantity for outbound.
//
// In sequential mode every adjustment commits on its own. A failing item
// leaves earlier adjustments applied and the order untouched, and the order's
// prior status is not checked. Strict mode locks the order, requires it to be
// pending or processing, and commits adjustments and order together.
func (s *orderService) ProcessOrder(ctx context.Context, id uuid.UUID, processedBy string, actor events.Actor) (*model.Order, error) {
	ctx, span := observability.Tracer().Start(ctx, "order.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.processed_by", processedBy),
		attribute.String("fulfillment.mode", string(s.mode)),
	)

	var (
		order   *model.Order
		results []*AdjustmentResult
		err     error
	)
	if s.mode == config.FulfillmentStrict {
		order, results, err = s.processStrict(ctx, id, processedBy, actor)
	} else {
		order, err = s.processSequential(ctx, id, processedBy, actor)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("Order fulfillment failed",
			zap.String("order_id", id.String()),
			zap.String("mode", string(s.mode)),
			zap.Error(err))
		return nil, err
	}

	// Sequential adjustments were announced as they committed.
	s.ledger.Announce(ctx, actor, results...)

	span.SetAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.Int("order.items", len(order.Items)),
	)
	s.log.Info("Order processed",
		zap.String("order_number", order.OrderNumber),
		zap.String("type", string(order.Type)),
		zap.Int("items", len(order.Items)),
		zap.String("processed_by", processedBy))

	s.announce(ctx, events.ActionOrderProcessed, order, actor,
		fmt.Sprintf("%s processed %s order %s", actorName(actor), order.Type, order.OrderNumber))
	return order, nil
}

func (s *orderService) processSequential(ctx context.Context, id uuid.UUID, processedBy string, actor events.Actor) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}

	for i, item := range order.Items {
		if _, err := s.ledger.AdjustStock(ctx, lineAdjustment(order, i, item, actor)); err != nil {
			s.log.Error("Stock adjustment failed, earlier lines stay applied",
				zap.String("order_number", order.OrderNumber),
				zap.Int("line", i+1),
				zap.Int("applied_lines", i),
				zap.Error(err))
			return nil, err
		}
	}

	finalize(order, processedBy, actor)
	if err := s.orderRepo.Save(s.db.WithContext(ctx), order); err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) processStrict(ctx context.Context, id uuid.UUID, processedBy string, actor events.Actor) (*model.Order, []*AdjustmentResult, error) {
	var (
		order   *model.Order
		results []*AdjustmentResult
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if !order.Status.Fulfillable() {
			return fmt.Errorf("%w: order %s is already %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		for i, item := range order.Items {
			res, err := s.ledger.AdjustStockTx(tx, lineAdjustment(order, i, item, actor))
			if err != nil {
				return err
			}
			results = append(results, res)
		}

		finalize(order, processedBy, actor)
		return notFound(s.orderRepo.Save(tx, order), ErrOrderNotFound)
	})
	if err != nil {
		return nil, nil, err
	}
	return order, results, nil
}

func lineAdjustment(order *model.Order, line int, item model.OrderItem, actor events.Actor) StockAdjustment {
	reason := model.ReasonOrderOutbound
	if order.Type == model.OrderInbound {
		reason = model.ReasonOrderInbound
	}
	orderID := order.ID
	return StockAdjustment{
		ProductRef: item.ProductID,
		Delta:      order.Type.StockDelta(item.Quantity),
		Reason:     reason,
		OrderID:    &orderID,
		Note:       fmt.Sprintf("%s line %d", order.OrderNumber, line+1),
		Actor:      actor,
	}
}

func finalize(order *model.Order, processedBy string, actor events.Actor) {
	now := time.Now()
	order.Status = model.StatusCompleted
	order.ProcessedBy = processedBy
	order.ProcessedAt = &now
	order.UpdatedBy = actor.ID
}

func (s *orderService) announce(ctx context.Context, action string, order *model.Order, actor events.Actor, message string) {
	evt := events.New(events.TypeOrderUpdate, action, order.ID.String(), map[string]interface{}{
		"id":           order.ID,
		"order_number": order.OrderNumber,
		"type":         order.Type,
		"status":       order.Status,
		"total_amount": order.TotalAmount,
		"items":        len(order.Items),
		"processed_by": order.ProcessedBy,
	})
	evt.User = &actor
	evt.Message = message
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("Failed to publish order event", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

// totalOrComputed keeps an explicit total and otherwise sums the items.
func totalOrComputed(total *float64, items model.OrderItems) float64 {
	if total != nil {
		return *total
	}
	return items.Total()
}

func normalizeItems(items []model.OrderItem) model.OrderItems {
	out := make(model.OrderItems, len(items))
	for i, item := range items {
		item.ProductID = strings.TrimSpace(item.ProductID)
		item.ProductName = strings.TrimSpace(item.ProductName)
		item.SKU = model.NormalizeSKU(item.SKU)
		out[i] = item
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
