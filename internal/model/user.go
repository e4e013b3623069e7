package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

// Privileged roles may see store-wide listings.
func (r Role) Privileged() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

type User struct {
	ID          string     `gorm:"primaryKey;size:36" bson:"_id"`
	Email       string     `gorm:"size:255;uniqueIndex;not null" bson:"email"`
	Name        string     `gorm:"size:120" bson:"name"`
	PhotoURL    string     `gorm:"column:photo_url;size:512" bson:"photoURL"`
	Role        Role       `gorm:"size:32;not null" bson:"role"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" bson:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
