package model

import "strings"

const (
	DefaultMinQuantity = 10
	DefaultUnit        = "pcs"
)

type Product struct {
	BaseModel
	SKU         string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required,max=50"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category    string  `gorm:"type:varchar(100);not null" json:"category" validate:"required"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Quantity    int     `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	MinQuantity int     `gorm:"not null" json:"min_quantity" validate:"gte=0"`
	Unit        string  `gorm:"type:varchar(20);not null;default:'pcs'" json:"unit"`
	Price       float64 `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Location    string  `gorm:"type:varchar(100)" json:"location,omitempty"`
}

// Normalize trims text fields, upper-cases the SKU and fills defaults.
func (p *Product) Normalize() {
	p.SKU = NormalizeSKU(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Description = strings.TrimSpace(p.Description)
	p.Location = strings.TrimSpace(p.Location)
	if strings.TrimSpace(p.Unit) == "" {
		p.Unit = DefaultUnit
	}
}

// IsLowStock reports whether on-hand quantity has reached the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinQuantity
}

func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
