package model

import "time"

type OrderType string

const (
	OrderInbound  OrderType = "inbound"
	OrderOutbound OrderType = "outbound"
)

func (t OrderType) Valid() bool {
	return t == OrderInbound || t == OrderOutbound
}

// StockDelta is the signed stock change a line of qty units causes:
// inbound goods are received, outbound goods leave the warehouse.
func (t OrderType) StockDelta(qty int) int {
	if t == OrderInbound {
		return qty
	}
	return -qty
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Fulfillable reports whether an order in this status may still be completed.
func (s OrderStatus) Fulfillable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransitionTo reports whether a direct status update may move an order
// from s to next: pending -> processing, and pending or processing ->
// cancelled. Completion is left to fulfillment. Staying in the same status is
// allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCancelled
	}
	return false
}

// OrderItem is a line of an order. ProductName and SKU are snapshots taken at
// order time and may drift from the product afterwards.
type OrderItem struct {
	ProductID   string  `json:"product_id" validate:"required"`
	ProductName string  `json:"product_name" validate:"required"`
	SKU         string  `json:"sku" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

type OrderItems []OrderItem

// Total sums price x quantity over all items.
func (items OrderItems) Total() float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

type Order struct {
	BaseModel
	OrderNumber string      `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_number"`
	Type        OrderType   `gorm:"type:varchar(10);not null;index" json:"type"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items       OrderItems  `gorm:"type:jsonb;serializer:json;not null" json:"items"`
	TotalAmount float64     `gorm:"not null;default:0" json:"total_amount"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy string      `gorm:"type:varchar(255)" json:"processed_by,omitempty"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
}
