package service

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultMovementDays = 7
	MaxMovementDays     = 365
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	GetMovements(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error)
}

type dashboardService struct {
	movementRepo repository.StockMovementRepository
	orderRepo    repository.OrderRepository
}

func NewDashboardService(mRepo repository.StockMovementRepository, oRepo repository.OrderRepository) DashboardService {
	return &dashboardService{movementRepo: mRepo, orderRepo: oRepo}
}

// GetStockMovement returns per-day inbound and outbound totals for the last
// days days; out-of-range values fall back to the default window.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > MaxMovementDays {
		days = DefaultMovementDays
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movementRepo.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.movementRepo.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.OrdersByStatus = counts
	return stats, nil
}

func (s *dashboardService) GetMovements(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error) {
	return s.movementRepo.FindAll(ctx, productID)
}
