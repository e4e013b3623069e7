// Package checkout talks to the hosted checkout-session provider.
package checkout

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound = errors.New("checkout: session not found")
	ErrUnavailable     = errors.New("checkout: provider unavailable")
	ErrTimeout         = errors.New("checkout: provider timeout")
	ErrRejected        = errors.New("checkout: request rejected")
)

const PaymentStatusPaid = "paid"

// Metadata keys attached to every session.
const (
	MetaBookID    = "bookId"
	MetaOrderID   = "orderId"
	MetaBookName  = "bookName"
	MetaOrderDate = "orderDate"
)

type Session struct {
	ID              string
	URL             string
	PaymentIntentID string
	PaymentStatus   string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
	Metadata        map[string]string
}

func (s *Session) Paid() bool {
	return s != nil && s.PaymentStatus == PaymentStatusPaid
}

type SessionRequest struct {
	ProductName   string
	UnitAmount    int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}
