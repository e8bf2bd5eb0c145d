package repository

import (
	"context"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindAll(ctx context.Context) ([]model.Order, error)
	FindByType(ctx context.Context, orderType model.OrderType) ([]model.Order, error)
	FindByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ExistsByNumber(ctx context.Context, orderNumber string) (bool, error)
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// LockByID loads an order with a row lock held until tx ends.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	// Save writes every column of an existing order through tx, which may be a
	// plain *gorm.DB. It returns gorm.ErrRecordNotFound when the row is gone.
	Save(tx *gorm.DB, order *model.Order) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) FindAll(ctx context.Context) ([]model.Order, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *orderRepo) FindByType(ctx context.Context, orderType model.OrderType) ([]model.Order, error) {
	return r.find(r.db.WithContext(ctx).Where("type = ?", orderType))
}

func (r *orderRepo) FindByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", status))
}

// find applies the shared newest-first ordering of every list query.
func (r *orderRepo) find(query *gorm.DB) ([]model.Order, error) {
	var orders []model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) ExistsByNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepo) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*)").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.OrderStatus]int64{
		model.StatusPending:    0,
		model.StatusProcessing: 0,
		model.StatusCompleted:  0,
		model.StatusCancelled:  0,
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.OrderStatus(status)] = n
	}
	return counts, rows.Err()
}

// Delete is a hard delete; it returns gorm.ErrRecordNotFound when nothing matched.
func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Save never inserts, so an order deleted mid-update stays deleted.
func (r *orderRepo) Save(tx *gorm.DB, order *model.Order) error {
	res := tx.Model(order).Select("*").Updates(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
