package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, actor events.Actor) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetLowStockProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor events.Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor events.Actor) error
	AdjustStock(ctx context.Context, id uuid.UUID, req *AdjustStockRequest, actor events.Actor) (*model.Product, error)
}

type CreateProductRequest struct {
	SKU         string  `json:"sku" validate:"required,max=50,sku"`
	Name        string  `json:"name" validate:"required,max=255"`
	Category    string  `json:"category" validate:"required,max=100"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	MinQuantity *int    `json:"min_quantity" validate:"omitempty,gte=0"`
	Unit        string  `json:"unit" validate:"max=20"`
	Price       float64 `json:"price" validate:"gte=0"`
	Location    string  `json:"location" validate:"max=100"`
}

// UpdateProductRequest changes descriptive fields only. Stock goes through AdjustStock.
type UpdateProductRequest struct {
	SKU         *string  `json:"sku" validate:"omitempty,max=50,sku"`
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Category    *string  `json:"category" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description"`
	MinQuantity *int     `json:"min_quantity" validate:"omitempty,gte=0"`
	Unit        *string  `json:"unit" validate:"omitempty,max=20"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Location    *string  `json:"location" validate:"omitempty,max=100"`
}

// AdjustStockRequest is a signed manual correction: positive receives, negative removes.
type AdjustStockRequest struct {
	Quantity int    `json:"quantity" validate:"required"`
	Note     string `json:"note" validate:"max=500"`
}

type productService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	ledger      StockLedger
	publisher   events.Publisher
	log         *zap.Logger
}

func NewProductService(db *gorm.DB, pRepo repository.ProductRepository, ledger StockLedger,
	publisher events.Publisher, log *zap.Logger) ProductService {
	return &productService{
		db:          db,
		productRepo: pRepo,
		ledger:      ledger,
		publisher:   publisher,
		log:         log,
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor events.Actor) (*model.Product, error) {
	// 1. Validate shape
	req.SKU = model.NormalizeSKU(req.SKU)
	if err := validationError(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		MinQuantity: model.DefaultMinQuantity,
		Unit:        req.Unit,
		Price:       req.Price,
		Location:    req.Location,
	}
	if req.MinQuantity != nil {
		product.MinQuantity = *req.MinQuantity
	}
	product.Normalize()
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	// 2. SKU must be unique
	if err := s.ensureSKUFree(ctx, product.SKU, uuid.Nil); err != nil {
		return nil, err
	}

	// 3. Insert at zero and book the opening quantity through the ledger
	var opening *AdjustmentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, product); err != nil {
			return err
		}
		if req.Quantity == 0 {
			return nil
		}
		res, err := s.ledger.AdjustStockTx(tx, StockAdjustment{
			ProductRef: product.ID.String(),
			Delta:      req.Quantity,
			Reason:     model.ReasonManual,
			Note:       "opening stock",
			Actor:      actor,
		})
		if err != nil {
			return err
		}
		product.Quantity = res.Product.Quantity
		opening = res
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSKU
		}
		return nil, err
	}

	// 4. Broadcast
	s.announce(ctx, events.ActionProductCreated, product, actor,
		fmt.Sprintf("%s created product '%s'", actorName(actor), product.Name))
	if opening != nil {
		s.ledger.Announce(ctx, actor, opening)
	}
	return product, nil
}

func (s *productService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *productService) GetLowStockProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindLowStock(ctx)
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor events.Actor) (*model.Product, error) {
	if err := validationError(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	if req.SKU != nil {
		sku := model.NormalizeSKU(*req.SKU)
		if sku != product.SKU {
			if err := s.ensureSKUFree(ctx, sku, product.ID); err != nil {
				return nil, err
			}
		}
		product.SKU = sku
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.MinQuantity != nil {
		product.MinQuantity = *req.MinQuantity
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Location != nil {
		product.Location = *req.Location
	}
	product.Normalize()
	product.UpdatedBy = actor.ID

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSKU
		}
		return nil, err
	}

	// Quantity in memory may be stale; re-read so the response shows the ledger's value.
	fresh, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	s.announce(ctx, events.ActionProductUpdated, fresh, actor,
		fmt.Sprintf("%s updated product '%s'", actorName(actor), fresh.Name))
	return fresh, nil
}

// DeleteProduct removes the product regardless of stock on hand or orders that
// still reference it. Its movement history is kept.
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID, actor events.Actor) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrProductNotFound)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrProductNotFound)
	}

	if product.Quantity != 0 {
		s.log.Info("Deleted product with stock on hand",
			zap.String("sku", product.SKU),
			zap.Int("quantity", product.Quantity))
	}
	s.announce(ctx, events.ActionProductDeleted, product, actor,
		fmt.Sprintf("%s deleted product '%s'", actorName(actor), product.Name))
	return nil
}

func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, req *AdjustStockRequest, actor events.Actor) (*model.Product, error) {
	if err := validationError(req); err != nil {
		return nil, err
	}

	res, err := s.ledger.AdjustStock(ctx, StockAdjustment{
		ProductRef: id.String(),
		Delta:      req.Quantity,
		Reason:     model.ReasonManual,
		Note:       strings.TrimSpace(req.Note),
		Actor:      actor,
	})
	if err != nil {
		return nil, err
	}
	return res.Product, nil
}

func (s *productService) ensureSKUFree(ctx context.Context, sku string, self uuid.UUID) error {
	existing, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return ErrDuplicateSKU
	}
	return nil
}

func (s *productService) announce(ctx context.Context, action string, p *model.Product, actor events.Actor, message string) {
	evt := events.New(events.TypeStockUpdate, action, p.ID.String(), map[string]interface{}{
		"product": map[string]interface{}{
			"id":           p.ID,
			"sku":          p.SKU,
			"name":         p.Name,
			"quantity":     p.Quantity,
			"min_quantity": p.MinQuantity,
			"price":        p.Price,
		},
	})
	evt.User = &actor
	evt.Message = message
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("Failed to publish product event", zap.String("sku", p.SKU), zap.Error(err))
	}
}
