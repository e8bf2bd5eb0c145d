package model

import "github.com/google/uuid"

type MovementReason string

const (
	ReasonOrderInbound  MovementReason = "order_inbound"
	ReasonOrderOutbound MovementReason = "order_outbound"
	ReasonManual        MovementReason = "manual"
)

// StockMovement is the audit row written for every ledger adjustment.
type StockMovement struct {
	BaseModel
	ProductID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductSKU     string         `gorm:"type:varchar(50);not null" json:"product_sku"`
	Delta          int            `gorm:"not null" json:"delta"`
	QuantityBefore int            `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int            `gorm:"not null" json:"quantity_after"`
	Reason         MovementReason `gorm:"type:varchar(20);not null" json:"reason"`
	OrderID        *uuid.UUID     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Note           string         `gorm:"type:text" json:"note,omitempty"`
}
