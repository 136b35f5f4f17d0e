package repository

import (
	"context"
	"time"

	"storefront-checkout/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, orderID uint) ([]*model.OrderItem, error)
	SetPaymentIntentID(ctx context.Context, tx *gorm.DB, orderID uint, intentID string) error
	// UpdatePaymentStatus transitions the order's payment status and
	// reports whether a row actually changed, so replayed webhook events
	// can tell an applied transition from a repeated one.
	UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID uint, from, to string) (bool, error)
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByPaymentIntentID(ctx context.Context, intentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", intentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, orderID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) SetPaymentIntentID(ctx context.Context, tx *gorm.DB, orderID uint, intentID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_intent_id": intentID,
			"updated_at":        time.Now(),
		}).Error
}

func (r *orderRepoImpl) UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID uint, from, to string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Where("payment_status = ?", from).
		Updates(map[string]interface{}{
			"payment_status": to,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", model.PaymentStatusPending).
		Where("created_at < ?", cutoff).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
