package repository

import (
	"context"

	"github.com/shinyyama/book-courier-backend/internal/model"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	// Create fails with ErrDuplicateKey when the transaction is already recorded.
	Create(ctx context.Context, p *model.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	// List returns payments by customerEmail, or all when it is empty.
	List(ctx context.Context, customerEmail string) ([]model.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *paymentRepository) List(ctx context.Context, customerEmail string) ([]model.Payment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.Payment{})
	if customerEmail != "" {
		q = q.Where("customer_email = ?", customerEmail)
	}
	var list []model.Payment
	if err := q.Order("paid_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
