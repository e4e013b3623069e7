package repository

import (
	"context"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]model.Order, error)
	ListByLibrarian(ctx context.Context, librarianEmail string) ([]model.Order, error)
	// MarkPaid moves a pending order to paid and stamps the tracking code and
	// transaction. It reports false when the order was not pending.
	MarkPaid(ctx context.Context, id, trackingID, transactionID string, paidAt time.Time) (bool, error)
	// Cancel moves a pending order to cancelled. It reports false when the order
	// was not pending.
	Cancel(ctx context.Context, id string) (bool, error)
	// UpdateDeliveryStatus applies from -> to on a paid order.
	UpdateDeliveryStatus(ctx context.Context, id string, from, to model.DeliveryStatus) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate(r.db.WithContext(ctx).Create(o).Error)
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]model.Order, error) {
	return r.listBy(ctx, "buyer_email", buyerEmail)
}

func (r *orderRepository) ListByLibrarian(ctx context.Context, librarianEmail string) ([]model.Order, error) {
	return r.listBy(ctx, "librarian_email", librarianEmail)
}

func (r *orderRepository) listBy(ctx context.Context, column, value string) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id, trackingID, transactionID string, paidAt time.Time) (bool, error) {
	return r.transition(ctx, id, model.OrderStatusPending, map[string]interface{}{
		"status":         model.OrderStatusPaid,
		"payment_status": model.PaymentStatusPaid,
		"tracking_id":    trackingID,
		"transaction_id": transactionID,
		"paid_at":        paidAt,
	})
}

func (r *orderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	return r.transition(ctx, id, model.OrderStatusPending, map[string]interface{}{
		"status": model.OrderStatusCancelled,
	})
}

func (r *orderRepository) transition(ctx context.Context, id string, from model.OrderStatus, updates map[string]interface{}) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) UpdateDeliveryStatus(ctx context.Context, id string, from, to model.DeliveryStatus) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ? AND delivery_status = ?", id, model.OrderStatusPaid, from).
		Update("delivery_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
