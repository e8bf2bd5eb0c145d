package repository

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	Create(tx *gorm.DB, movement *model.StockMovement) error
	FindAll(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// StockMovementData is one day of chart data.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the product overview shown on the dashboard.
type DashboardStats struct {
	TotalProducts  int64                       `json:"total_products"`
	LowStockCount  int64                       `json:"low_stock_count"`
	TotalValuation float64                     `json:"total_valuation"`
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status,omitempty"`
}

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db}
}

func (r *stockMovementRepo) Create(tx *gorm.DB, movement *model.StockMovement) error {
	return tx.Create(movement).Error
}

func (r *stockMovementRepo) FindAll(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	query := r.db.WithContext(ctx)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	err := query.Order("created_at DESC").Find(&movements).Error
	return movements, err
}

// GetStockMovement buckets movements per calendar day (UTC). Bucketing happens
// in Go so the query stays portable across SQL dialects.
func (r *stockMovementRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var rows []struct {
		Delta     int
		CreatedAt time.Time
	}
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select("delta, created_at").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := []StockMovementData{}
	index := map[string]int{}
	for _, row := range rows {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			results = append(results, StockMovementData{Date: day})
			i = len(results) - 1
			index[day] = i
		}
		if row.Delta > 0 {
			results[i].Inbound += row.Delta
		} else {
			results[i].Outbound += -row.Delta
		}
	}

	return results, nil
}

func (r *stockMovementRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Where("quantity <= min_quantity").Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(quantity * price), 0)").Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
