package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NewBookStatus string

const (
	NewBookStatusPending  NewBookStatus = "pending"
	NewBookStatusApproved NewBookStatus = "approved"
	NewBookStatusRejected NewBookStatus = "rejected"
)

// NewBook is a catalog entry submitted by a librarian and awaiting review.
type NewBook struct {
	ID             string        `gorm:"primaryKey;size:36" bson:"_id"`
	Title          string        `gorm:"size:200;not null" bson:"title"`
	Author         string        `gorm:"size:200;not null" bson:"author"`
	Image          string        `gorm:"size:512" bson:"image"`
	Price          float64       `gorm:"not null" bson:"price"`
	Category       string        `gorm:"size:64" bson:"category"`
	Description    string        `gorm:"type:text" bson:"description"`
	LibrarianEmail string        `gorm:"column:librarian_email;size:255;index;not null" bson:"librarianEmail"`
	Status         NewBookStatus `gorm:"size:32;index;not null" bson:"status"`
	BookID         string        `gorm:"column:book_id;size:36" bson:"bookId,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" bson:"createdAt"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" bson:"updatedAt"`
}

func (NewBook) TableName() string {
	return "new_books"
}

func (n *NewBook) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
