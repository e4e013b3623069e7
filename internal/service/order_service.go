package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

type CreateOrderInput struct {
	BookID    string
	BuyerName string
	Phone     string
	Address   string
}

type OrderService interface {
	Create(ctx context.Context, actor *identity.Identity, in CreateOrderInput) (*model.Order, error)
	Get(ctx context.Context, actor *identity.Identity, id string) (*model.Order, error)
	ListMine(ctx context.Context, actor *identity.Identity) ([]model.Order, error)
	ListForLibrarian(ctx context.Context, actor *identity.Identity) ([]model.Order, error)
	Cancel(ctx context.Context, actor *identity.Identity, id string) (*model.Order, error)
	UpdateDelivery(ctx context.Context, actor *identity.Identity, id string, to model.DeliveryStatus) (*model.Order, error)
}

type orderService struct {
	orders  repository.OrderRepository
	books   repository.BookRepository
	timeout time.Duration
	now     func() time.Time
}

func NewOrderService(orders repository.OrderRepository, books repository.BookRepository, timeout time.Duration) OrderService {
	return &orderService{orders: orders, books: books, timeout: timeout, now: time.Now}
}

func (s *orderService) Create(ctx context.Context, actor *identity.Identity, in CreateOrderInput) (*model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.BookID = strings.TrimSpace(in.BookID)
	if in.BookID == "" {
		return nil, invalid("bookId is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	book, err := s.books.FindByID(ctx, in.BookID)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	if book.Status != model.BookStatusPublished {
		return nil, invalid("book %s is not available", book.ID)
	}
	now := s.now()
	o := &model.Order{
		BookID:         book.ID,
		BookName:       book.Title,
		BuyerEmail:     strings.ToLower(actor.Email),
		BuyerName:      strings.TrimSpace(in.BuyerName),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		LibrarianEmail: book.LibrarianEmail,
		Price:          book.Price,
		OrderDate:      now,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusUnpaid,
		DeliveryStatus: model.DeliveryStatusPending,
		CreatedAt:      now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	log.Printf("[orders] created order=%s book=%s buyer=%s", o.ID, o.BookID, o.BuyerEmail)
	return o, nil
}

func (s *orderService) Get(ctx context.Context, actor *identity.Identity, id string) (*model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	if !ownerOrAdmin(actor, o.BuyerEmail) && !sameEmail(o.LibrarianEmail, actor.Email) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *orderService) ListMine(ctx context.Context, actor *identity.Identity) ([]model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	list, err := s.orders.ListByBuyer(ctx, strings.ToLower(actor.Email))
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	return list, nil
}

func (s *orderService) ListForLibrarian(ctx context.Context, actor *identity.Identity) ([]model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Role.Privileged() {
		return nil, ErrForbidden
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	list, err := s.orders.ListByLibrarian(ctx, actor.Email)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	return list, nil
}

// Cancel moves a pending order to cancelled. Paid orders never cancel.
func (s *orderService) Cancel(ctx context.Context, actor *identity.Identity, id string) (*model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	if !ownerOrAdmin(actor, o.BuyerEmail) {
		return nil, ErrForbidden
	}
	moved, err := s.orders.Cancel(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	if !moved {
		current, err := s.orders.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidStateTransition, id, current.Status)
	}
	log.Printf("[orders] cancelled order=%s by=%s", id, actor.Email)
	return s.reload(ctx, id)
}

func (s *orderService) UpdateDelivery(ctx context.Context, actor *identity.Identity, id string, to model.DeliveryStatus) (*model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	if !ownerOrAdmin(actor, o.LibrarianEmail) {
		return nil, ErrForbidden
	}
	if o.Status != model.OrderStatusPaid || !o.DeliveryStatus.Next(to) {
		return nil, fmt.Errorf("%w: delivery %s -> %s on %s order", ErrInvalidStateTransition, o.DeliveryStatus, to, o.Status)
	}
	moved, err := s.orders.UpdateDeliveryStatus(ctx, id, o.DeliveryStatus, to)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	if !moved {
		return nil, fmt.Errorf("%w: delivery status changed concurrently", ErrInvalidStateTransition)
	}
	return s.reload(ctx, id)
}

// reload returns the stored document after a transition so timestamps set by
// the store are reflected.
func (s *orderService) reload(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	return o, nil
}
