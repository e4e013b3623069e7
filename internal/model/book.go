package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookStatus string

const (
	BookStatusPublished   BookStatus = "published"
	BookStatusUnpublished BookStatus = "unpublished"
)

type Book struct {
	ID             string     `gorm:"primaryKey;size:36" bson:"_id"`
	Title          string     `gorm:"size:200;not null" bson:"title"`
	Author         string     `gorm:"size:200;not null" bson:"author"`
	Image          string     `gorm:"size:512" bson:"image"`
	Price          float64    `gorm:"not null" bson:"price"`
	Category       string     `gorm:"size:64;index" bson:"category"`
	Description    string     `gorm:"type:text" bson:"description"`
	Quantity       int        `gorm:"not null;default:0" bson:"quantity"`
	LibrarianEmail string     `gorm:"column:librarian_email;size:255;index" bson:"librarianEmail"`
	Status         BookStatus `gorm:"size:32;index;not null" bson:"status"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" bson:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" bson:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
