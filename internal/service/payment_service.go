package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"github.com/shinyyama/book-courier-backend/internal/tracking"
)

type PaymentConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
}

type CheckoutInput struct {
	OrderID    string
	SuccessURL string
	CancelURL  string
}

type CheckoutResult struct {
	URL       string
	SessionID string
}

// ConfirmResult describes the outcome of reconciling one checkout session.
// Paid is false when the provider has not collected the payment yet.
type ConfirmResult struct {
	Paid             bool
	PaymentStatus    string
	AlreadyProcessed bool
	TrackingID       string
	TransactionID    string
	Order            *model.Order
	Payment          *model.Payment
}

type PaymentService interface {
	CreateCheckout(ctx context.Context, actor *identity.Identity, in CheckoutInput) (*CheckoutResult, error)
	ConfirmSession(ctx context.Context, sessionID string) (*ConfirmResult, error)
	List(ctx context.Context, actor *identity.Identity, email string) ([]model.Payment, error)
}

type paymentService struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	provider checkout.Provider
	tracker  *tracking.Generator
	cfg      PaymentConfig
	now      func() time.Time
}

func NewPaymentService(orders repository.OrderRepository, payments repository.PaymentRepository, provider checkout.Provider, tracker *tracking.Generator, cfg PaymentConfig) PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &paymentService{
		orders:   orders,
		payments: payments,
		provider: provider,
		tracker:  tracker,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *paymentService) CreateCheckout(ctx context.Context, actor *identity.Identity, in CheckoutInput) (*CheckoutResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OrderID) == "" {
		return nil, invalid("orderId is required")
	}
	sctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	o, err := s.orders.FindByID(sctx, in.OrderID)
	cancel()
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	if !ownerOrAdmin(actor, o.BuyerEmail) {
		return nil, ErrForbidden
	}
	if o.Status != model.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidStateTransition, o.ID, o.Status)
	}
	amount := int64(math.Round(o.Price * 100))
	if amount <= 0 {
		return nil, invalid("order %s has no payable amount", o.ID)
	}

	req := checkout.SessionRequest{
		ProductName:   o.BookName,
		UnitAmount:    amount,
		Currency:      s.cfg.Currency,
		CustomerEmail: o.BuyerEmail,
		SuccessURL:    firstNonEmpty(in.SuccessURL, s.cfg.SuccessURL),
		CancelURL:     firstNonEmpty(in.CancelURL, s.cfg.CancelURL),
		Metadata: map[string]string{
			checkout.MetaBookID:    o.BookID,
			checkout.MetaOrderID:   o.ID,
			checkout.MetaBookName:  o.BookName,
			checkout.MetaOrderDate: o.OrderDate.UTC().Format(time.RFC3339),
		},
	}
	pctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	sess, err := s.provider.CreateSession(pctx, req)
	if err != nil {
		log.Printf("[checkout] create session failed order=%s err=%v", o.ID, err)
		return nil, providerErr(err)
	}
	log.Printf("[checkout] session=%s order=%s amount=%d", sess.ID, o.ID, amount)
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// ConfirmSession reconciles a checkout session with the order it pays for.
// Calling it any number of times for the same session yields one Payment and
// one tracking code. The payments unique index on transactionId is what makes
// concurrent calls safe; the lookup before writing only saves work.
func (s *paymentService) ConfirmSession(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, invalid("session_id is required")
	}

	pctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	sess, err := s.provider.RetrieveSession(pctx, sessionID)
	cancel()
	if err != nil {
		log.Printf("[reconcile] session=%s stage=retrieve err=%v", sessionID, err)
		return nil, providerErr(err)
	}
	txID := sess.PaymentIntentID

	if txID != "" {
		existing, err := s.findPayment(ctx, txID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.processed(ctx, existing), nil
		}
	}

	if !sess.Paid() {
		log.Printf("[reconcile] session=%s stage=status payment_status=%s", sessionID, sess.PaymentStatus)
		return &ConfirmResult{Paid: false, PaymentStatus: sess.PaymentStatus, TransactionID: txID}, nil
	}
	if txID == "" {
		return nil, fmt.Errorf("%w: paid session %s has no payment intent", ErrUpstreamUnavailable, sessionID)
	}
	orderID := sess.Metadata[checkout.MetaOrderID]
	if orderID == "" {
		return nil, fmt.Errorf("%w: session %s carries no order id", ErrOrderNotFound, sessionID)
	}

	trackingID, paidAt, err := s.markPaid(ctx, orderID, txID)
	if err != nil {
		log.Printf("[reconcile] session=%s order=%s stage=mark_paid err=%v", sessionID, orderID, err)
		return nil, err
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{
		OrderID:       orderID,
		Amount:        float64(sess.AmountTotal) / 100,
		Currency:      firstNonEmpty(sess.Currency, s.cfg.Currency),
		CustomerEmail: strings.ToLower(firstNonEmpty(sess.CustomerEmail, order.BuyerEmail)),
		BookID:        firstNonEmpty(sess.Metadata[checkout.MetaBookID], order.BookID),
		BookName:      firstNonEmpty(sess.Metadata[checkout.MetaBookName], order.BookName),
		TransactionID: txID,
		PaymentStatus: sess.PaymentStatus,
		TrackingID:    trackingID,
		PaidAt:        paidAt,
	}
	wctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	err = s.payments.Create(wctx, p)
	cancel()
	if errors.Is(err, repository.ErrDuplicateKey) {
		existing, ferr := s.findPayment(ctx, txID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: payment %s vanished after duplicate insert", ErrUpstreamUnavailable, txID)
		}
		log.Printf("[reconcile] session=%s tx=%s stage=insert duplicate absorbed", sessionID, txID)
		res := s.processed(ctx, existing)
		res.Order = order
		return res, nil
	}
	if err != nil {
		log.Printf("[reconcile] session=%s tx=%s stage=insert err=%v", sessionID, txID, err)
		return nil, storeErr(err, ErrNotFound)
	}

	log.Printf("[reconcile] session=%s order=%s tx=%s tracking=%s stage=done", sessionID, orderID, txID, trackingID)
	return &ConfirmResult{
		Paid:          true,
		PaymentStatus: sess.PaymentStatus,
		TrackingID:    trackingID,
		TransactionID: txID,
		Order:         order,
		Payment:       p,
	}, nil
}

// markPaid performs the pending -> paid transition. When the order is already
// paid by the same transaction its stored tracking code is reused, which lets a
// retry finish a run that stopped before the payment was written.
func (s *paymentService) markPaid(ctx context.Context, orderID, txID string) (string, time.Time, error) {
	trackingID := s.tracker.Generate()
	paidAt := s.now().UTC()

	wctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	moved, err := s.orders.MarkPaid(wctx, orderID, trackingID, txID, paidAt)
	if err != nil {
		return "", time.Time{}, storeErr(err, ErrOrderNotFound)
	}
	if moved {
		return trackingID, paidAt, nil
	}

	o, err := s.orders.FindByID(wctx, orderID)
	if err != nil {
		return "", time.Time{}, storeErr(err, ErrOrderNotFound)
	}
	if o.Status == model.OrderStatusPaid && o.TransactionID == txID && o.TrackingID != "" {
		log.Printf("[reconcile] order=%s tx=%s stage=mark_paid resuming tracking=%s", orderID, txID, o.TrackingID)
		if o.PaidAt != nil {
			paidAt = o.PaidAt.UTC()
		}
		return o.TrackingID, paidAt, nil
	}
	return "", time.Time{}, fmt.Errorf("%w: order %s is %s", ErrInvalidStateTransition, orderID, o.Status)
}

func (s *paymentService) findPayment(ctx context.Context, txID string) (*model.Payment, error) {
	rctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	p, err := s.payments.FindByTransactionID(rctx, txID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return p, nil
}

func (s *paymentService) loadOrder(ctx context.Context, id string) (*model.Order, error) {
	rctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	o, err := s.orders.FindByID(rctx, id)
	if err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	return o, nil
}

// processed builds the idempotent result. The order is attached when it can
// be read; the payment alone is enough to answer.
func (s *paymentService) processed(ctx context.Context, p *model.Payment) *ConfirmResult {
	res := &ConfirmResult{
		Paid:             true,
		PaymentStatus:    p.PaymentStatus,
		AlreadyProcessed: true,
		TrackingID:       p.TrackingID,
		TransactionID:    p.TransactionID,
		Payment:          p,
	}
	if o, err := s.loadOrder(ctx, p.OrderID); err == nil {
		res.Order = o
	}
	return res
}

func (s *paymentService) List(ctx context.Context, actor *identity.Identity, email string) ([]model.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter := strings.ToLower(strings.TrimSpace(email))
	switch {
	case filter != "" && !sameEmail(filter, actor.Email):
		return nil, ErrForbidden
	case filter == "" && !actor.Role.Privileged():
		return nil, ErrForbidden
	}
	rctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	list, err := s.payments.List(rctx, filter)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return list, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
