package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal states never transition again.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusShipped   DeliveryStatus = "shipped"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// Next reports whether next is the single allowed step after s.
func (s DeliveryStatus) Next(next DeliveryStatus) bool {
	switch s {
	case DeliveryStatusPending:
		return next == DeliveryStatusShipped
	case DeliveryStatusShipped:
		return next == DeliveryStatusDelivered
	}
	return false
}

type Order struct {
	ID             string         `gorm:"primaryKey;size:36" bson:"_id"`
	BookID         string         `gorm:"column:book_id;size:36;index;not null" bson:"bookId"`
	BookName       string         `gorm:"column:book_name;size:200" bson:"bookName"`
	BuyerEmail     string         `gorm:"column:buyer_email;size:255;index;not null" bson:"buyerEmail"`
	BuyerName      string         `gorm:"column:buyer_name;size:120" bson:"buyerName"`
	Phone          string         `gorm:"size:32" bson:"phone"`
	Address        string         `gorm:"type:text" bson:"address"`
	LibrarianEmail string         `gorm:"column:librarian_email;size:255;index" bson:"librarianEmail"`
	Price          float64        `gorm:"not null" bson:"price"`
	OrderDate      time.Time      `gorm:"column:order_date" bson:"orderDate"`
	Status         OrderStatus    `gorm:"size:32;index;not null" bson:"status"`
	PaymentStatus  PaymentStatus  `gorm:"column:payment_status;size:32;not null" bson:"paymentStatus"`
	DeliveryStatus DeliveryStatus `gorm:"column:delivery_status;size:32;not null" bson:"deliveryStatus"`
	TrackingID     string         `gorm:"column:tracking_id;size:64" bson:"trackingId,omitempty"`
	TransactionID  string         `gorm:"column:transaction_id;size:255" bson:"transactionId,omitempty"`
	PaidAt         *time.Time     `gorm:"column:paid_at" bson:"paidAt,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" bson:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" bson:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
