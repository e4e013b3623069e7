// Package repository is the document-store gateway. Each collection is a small
// interface; Set bundles one implementation of every collection so services can be
// wired against either the gorm (MySQL) or the Mongo backend.
package repository

import "gorm.io/gorm"

type Set struct {
	Books    BookRepository
	Users    UserRepository
	NewBooks SubmissionRepository
	Orders   OrderRepository
	Payments PaymentRepository
}

func NewGormSet(db *gorm.DB) *Set {
	return &Set{
		Books:    NewBookRepository(db),
		Users:    NewUserRepository(db),
		NewBooks: NewSubmissionRepository(db),
		Orders:   NewOrderRepository(db),
		Payments: NewPaymentRepository(db),
	}
}

type BookFilter struct {
	Status         string
	Category       string
	Search         string
	LibrarianEmail string
	Limit          int
	Offset         int
}
