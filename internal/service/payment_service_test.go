package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	reader    = &identity.Identity{UID: "u1", Email: "reader@example.com", Role: model.RoleUser}
	stranger  = &identity.Identity{UID: "u2", Email: "other@example.com", Role: model.RoleUser}
	librarian = &identity.Identity{UID: "l1", Email: "lib@example.com", Role: model.RoleLibrarian}
	admin     = &identity.Identity{UID: "a1", Email: "admin@example.com", Role: model.RoleAdmin}
)

func pendingOrder(id string) model.Order {
	return model.Order{
		ID:             id,
		BookID:         "b1",
		BookName:       "Dune",
		BuyerEmail:     reader.Email,
		LibrarianEmail: librarian.Email,
		Price:          25,
		OrderDate:      time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC),
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusUnpaid,
		DeliveryStatus: model.DeliveryStatusPending,
	}
}

func paidSession(id, txID, orderID string) *checkout.Session {
	return &checkout.Session{
		ID:              id,
		PaymentIntentID: txID,
		PaymentStatus:   checkout.PaymentStatusPaid,
		AmountTotal:     2500,
		Currency:        "usd",
		CustomerEmail:   "Reader@Example.com",
		Metadata: map[string]string{
			checkout.MetaOrderID:  orderID,
			checkout.MetaBookID:   "b1",
			checkout.MetaBookName: "Dune",
		},
	}
}

func newPaymentFixture() (*memStore, *fakeProvider, PaymentService) {
	store := newMemStore()
	store.orders["o1"] = pendingOrder("o1")
	provider := &fakeProvider{sessions: map[string]*checkout.Session{
		"cs_1": paidSession("cs_1", "pi_1", "o1"),
	}}
	gen := &tracking.Generator{
		Now:  func() time.Time { return time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC) },
		Rand: func(int) int { return 42 },
	}
	set := store.set()
	svc := NewPaymentService(set.Orders, set.Payments, provider, gen, PaymentConfig{
		Currency:   "usd",
		SuccessURL: "https://shop.example/ok",
		CancelURL:  "https://shop.example/cancel",
		Timeout:    time.Second,
	})
	return store, provider, svc
}

func TestConfirmSessionPaysOrder(t *testing.T) {
	store, _, svc := newPaymentFixture()

	res, err := svc.ConfirmSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.False(t, res.AlreadyProcessed)
	assert.Equal(t, "pi_1", res.TransactionID)
	assert.Regexp(t, `^TRK-20251014-\d{6}-1042$`, res.TrackingID)

	require.NotNil(t, res.Payment)
	assert.Equal(t, 25.00, res.Payment.Amount)
	assert.Equal(t, "reader@example.com", res.Payment.CustomerEmail)
	assert.Equal(t, res.TrackingID, res.Payment.TrackingID)

	o := store.order("o1")
	assert.Equal(t, model.OrderStatusPaid, o.Status)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, res.TrackingID, o.TrackingID)
	assert.Equal(t, "pi_1", o.TransactionID)
	assert.NotNil(t, o.PaidAt)
}

func TestConfirmSessionIsIdempotent(t *testing.T) {
	store, _, svc := newPaymentFixture()

	first, err := svc.ConfirmSession(context.Background(), "cs_1")
	require.NoError(t, err)
	second, err := svc.ConfirmSession(context.Background(), "cs_1")
	require.NoError(t, err)

	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.TrackingID, second.TrackingID)
	assert.Equal(t, 1, store.paymentCount())
	assert.Equal(t, 1, store.paymentCreates, "second call must not attempt another insert")
}

func TestConfirmSessionConcurrentCallsWriteOnePayment(t *testing.T) {
	store, _, svc := newPaymentFixture()

	const n = 16
	var wg sync.WaitGroup
	results := make([]*ConfirmResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ConfirmSession(context.Background(), "cs_1")
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, store.order("o1").TrackingID, results[i].TrackingID)
		if !results[i].AlreadyProcessed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, store.paymentCount())
}

func TestConfirmSessionUnpaidWritesNothing(t *testing.T) {
	store, provider, svc := newPaymentFixture()
	s := paidSession("cs_open", "pi_open", "o1")
	s.PaymentStatus = "unpaid"
	provider.sessions["cs_open"] = s

	res, err := svc.ConfirmSession(context.Background(), "cs_open")
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Equal(t, "unpaid", res.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, store.order("o1").Status)
	assert.Empty(t, store.order("o1").TrackingID)
	assert.Zero(t, store.paymentCount())
}

func TestConfirmSessionResumesAfterPaymentInsertFailure(t *testing.T) {
	store, _, svc := newPaymentFixture()
	store.failPaymentCreate = errors.New("connection reset by peer")

	_, err := svc.ConfirmSession(context.Background(), "cs_1")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	tracked := store.order("o1").TrackingID
	require.NotEmpty(t, tracked)
	assert.Zero(t, store.paymentCount())

	res, err := svc.ConfirmSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyProcessed)
	assert.Equal(t, tracked, res.TrackingID)
	assert.Equal(t, tracked, res.Payment.TrackingID)
	assert.Equal(t, 1, store.paymentCount())
}

func TestConfirmSessionErrors(t *testing.T) {
	tests := []struct {
		name    string
		session string
		setup   func(*memStore, *fakeProvider)
		want    error
	}{
		{"blank id", " ", nil, ErrInvalidInput},
		{"unknown session", "cs_missing", nil, ErrSessionNotFound},
		{"provider down", "cs_1", func(_ *memStore, p *fakeProvider) { p.err = checkout.ErrUnavailable }, ErrUpstreamUnavailable},
		{"provider timeout", "cs_1", func(_ *memStore, p *fakeProvider) { p.err = checkout.ErrTimeout }, ErrUpstreamTimeout},
		{"order missing", "cs_1", func(s *memStore, _ *fakeProvider) { delete(s.orders, "o1") }, ErrOrderNotFound},
		{"order cancelled", "cs_1", func(s *memStore, _ *fakeProvider) {
			o := s.orders["o1"]
			o.Status = model.OrderStatusCancelled
			s.orders["o1"] = o
		}, ErrInvalidStateTransition},
		{"paid by another transaction", "cs_1", func(s *memStore, _ *fakeProvider) {
			o := s.orders["o1"]
			o.Status = model.OrderStatusPaid
			o.TransactionID = "pi_other"
			o.TrackingID = "TRK-20250101-000000-1000"
			s.orders["o1"] = o
		}, ErrInvalidStateTransition},
		{"paid without intent", "cs_1", func(_ *memStore, p *fakeProvider) { p.sessions["cs_1"].PaymentIntentID = "" }, ErrUpstreamUnavailable},
		{"no order metadata", "cs_1", func(_ *memStore, p *fakeProvider) { delete(p.sessions["cs_1"].Metadata, checkout.MetaOrderID) }, ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, provider, svc := newPaymentFixture()
			if tt.setup != nil {
				tt.setup(store, provider)
			}
			_, err := svc.ConfirmSession(context.Background(), tt.session)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, store.paymentCount())
		})
	}
}

func TestCreateCheckout(t *testing.T) {
	store, provider, svc := newPaymentFixture()

	res, err := svc.CreateCheckout(context.Background(), reader, CheckoutInput{OrderID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.SessionID)
	assert.NotEmpty(t, res.URL)

	require.Len(t, provider.created, 1)
	req := provider.created[0]
	assert.Equal(t, int64(2500), req.UnitAmount)
	assert.Equal(t, "Dune", req.ProductName)
	assert.Equal(t, "https://shop.example/ok", req.SuccessURL)
	assert.Equal(t, "o1", req.Metadata[checkout.MetaOrderID])
	assert.Equal(t, "2025-10-14T09:00:00Z", req.Metadata[checkout.MetaOrderDate])

	_, err = svc.CreateCheckout(context.Background(), stranger, CheckoutInput{OrderID: "o1"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateCheckout(context.Background(), reader, CheckoutInput{OrderID: "nope"})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	o := store.orders["o1"]
	o.Status = model.OrderStatusPaid
	store.orders["o1"] = o
	_, err = svc.CreateCheckout(context.Background(), reader, CheckoutInput{OrderID: "o1"})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestListPayments(t *testing.T) {
	store, _, svc := newPaymentFixture()
	_, err := svc.ConfirmSession(context.Background(), "cs_1")
	require.NoError(t, err)
	store.payments["pi_x"] = model.Payment{ID: "p2", TransactionID: "pi_x", CustomerEmail: stranger.Email}

	tests := []struct {
		name    string
		actor   *identity.Identity
		email   string
		want    int
		wantErr error
	}{
		{"own filter", reader, "reader@example.com", 1, nil},
		{"own filter any case", reader, "READER@example.com", 1, nil},
		{"someone else's email", reader, stranger.Email, 0, ErrForbidden},
		{"admin with foreign filter", admin, reader.Email, 0, ErrForbidden},
		{"user without filter", reader, "", 0, ErrForbidden},
		{"librarian lists all", librarian, "", 2, nil},
		{"admin lists all", admin, "", 2, nil},
		{"anonymous", nil, "", 0, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(context.Background(), tt.actor, tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
		})
	}
}
