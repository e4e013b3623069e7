package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is written once per provider transaction and never updated.
type Payment struct {
	ID            string    `gorm:"primaryKey;size:36" bson:"_id"`
	OrderID       string    `gorm:"column:order_id;size:36;index" bson:"orderId"`
	Amount        float64   `gorm:"not null" bson:"amount"`
	Currency      string    `gorm:"size:8;not null" bson:"currency"`
	CustomerEmail string    `gorm:"column:customer_email;size:255;index;not null" bson:"customerEmail"`
	BookID        string    `gorm:"column:book_id;size:36" bson:"bookId"`
	BookName      string    `gorm:"column:book_name;size:200" bson:"bookName"`
	TransactionID string    `gorm:"column:transaction_id;size:255;uniqueIndex;not null" bson:"transactionId"`
	PaymentStatus string    `gorm:"column:payment_status;size:32;not null" bson:"paymentStatus"`
	TrackingID    string    `gorm:"column:tracking_id;size:64" bson:"trackingId"`
	PaidAt        time.Time `gorm:"column:paid_at" bson:"paidAt"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
