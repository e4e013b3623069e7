package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

// memStore backs every repository with maps and emulates the unique indexes
// on payments.transactionId and users.email.
type memStore struct {
	mu       sync.Mutex
	books    map[string]model.Book
	users    map[string]model.User
	newBooks map[string]model.NewBook
	orders   map[string]model.Order
	payments map[string]model.Payment

	paymentCreates int
	// failPaymentCreate is returned once by the next payments insert.
	failPaymentCreate error
	failOrderReads    error
}

func newMemStore() *memStore {
	return &memStore{
		books:    map[string]model.Book{},
		users:    map[string]model.User{},
		newBooks: map[string]model.NewBook{},
		orders:   map[string]model.Order{},
		payments: map[string]model.Payment{},
	}
}

func (m *memStore) set() *repository.Set {
	return &repository.Set{
		Books:    memBooks{m},
		Users:    memUsers{m},
		NewBooks: memNewBooks{m},
		Orders:   memOrders{m},
		Payments: memPayments{m},
	}
}

func (m *memStore) order(id string) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memStore) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

type memBooks struct{ *memStore }

func (r memBooks) Create(_ context.Context, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.books[b.ID] = *b
	return nil
}

func (r memBooks) FindByID(_ context.Context, id string) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r memBooks) List(_ context.Context, f repository.BookFilter) ([]model.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Book
	for _, b := range r.books {
		if f.Status != "" && string(b.Status) != f.Status {
			continue
		}
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.LibrarianEmail != "" && b.LibrarianEmail != f.LibrarianEmail {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(b.Title+" "+b.Author), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	total := int64(len(out))
	if f.Offset >= len(out) {
		return []model.Book{}, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r memBooks) Update(_ context.Context, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[b.ID]; !ok {
		return repository.ErrNotFound
	}
	r.books[b.ID] = *b
	return nil
}

func (r memBooks) UpdateImage(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Image = url
	r.books[id] = b
	return nil
}

func (r memBooks) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

type memUsers struct{ *memStore }

func (r memUsers) Upsert(_ context.Context, u *model.User) (*model.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[u.Email]; ok {
		existing.LastLoginAt = u.LastLoginAt
		r.users[u.Email] = existing
		return &existing, false, nil
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.users[u.Email] = *u
	return u, true, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) List(_ context.Context, limit, offset int) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	if offset >= len(out) {
		return []model.User{}, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r memUsers) UpdateRole(_ context.Context, id string, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, u := range r.users {
		if u.ID == id {
			u.Role = role
			r.users[email] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

type memNewBooks struct{ *memStore }

func (r memNewBooks) Create(_ context.Context, nb *model.NewBook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if nb.ID == "" {
		nb.ID = uuid.NewString()
	}
	r.newBooks[nb.ID] = *nb
	return nil
}

func (r memNewBooks) FindByID(_ context.Context, id string) (*model.NewBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nb, ok := r.newBooks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &nb, nil
}

func (r memNewBooks) List(_ context.Context, librarianEmail string) ([]model.NewBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.NewBook{}
	for _, nb := range r.newBooks {
		if librarianEmail == "" || nb.LibrarianEmail == librarianEmail {
			out = append(out, nb)
		}
	}
	return out, nil
}

func (r memNewBooks) Review(_ context.Context, id string, status model.NewBookStatus, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nb, ok := r.newBooks[id]
	if !ok || nb.Status != model.NewBookStatusPending {
		return false, nil
	}
	nb.Status = status
	nb.BookID = bookID
	r.newBooks[id] = nb
	return true, nil
}

func (r memNewBooks) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.newBooks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.newBooks, id)
	return nil
}

type memOrders struct{ *memStore }

func (r memOrders) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	r.orders[o.ID] = *o
	return nil
}

func (r memOrders) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOrderReads != nil {
		return nil, r.failOrderReads
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r memOrders) list(match func(model.Order) bool) []model.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	return out
}

func (r memOrders) ListByBuyer(_ context.Context, email string) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.BuyerEmail == email }), nil
}

func (r memOrders) ListByLibrarian(_ context.Context, email string) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.LibrarianEmail == email }), nil
}

func (r memOrders) MarkPaid(_ context.Context, id, trackingID, txID string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusPaid
	o.PaymentStatus = model.PaymentStatusPaid
	o.TrackingID = trackingID
	o.TransactionID = txID
	o.PaidAt = &paidAt
	o.UpdatedAt = time.Now()
	r.orders[id] = o
	return true, nil
}

func (r memOrders) Cancel(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusCancelled
	o.UpdatedAt = time.Now()
	r.orders[id] = o
	return true, nil
}

func (r memOrders) UpdateDeliveryStatus(_ context.Context, id string, from, to model.DeliveryStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderStatusPaid || o.DeliveryStatus != from {
		return false, nil
	}
	o.DeliveryStatus = to
	o.UpdatedAt = time.Now()
	r.orders[id] = o
	return true, nil
}

type memPayments struct{ *memStore }

func (r memPayments) Create(_ context.Context, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paymentCreates++
	if err := r.failPaymentCreate; err != nil {
		r.failPaymentCreate = nil
		return err
	}
	if _, ok := r.payments[p.TransactionID]; ok {
		return fmt.Errorf("%w: transaction_id %s", repository.ErrDuplicateKey, p.TransactionID)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.payments[p.TransactionID] = *p
	return nil
}

func (r memPayments) FindByTransactionID(_ context.Context, txID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) List(_ context.Context, email string) ([]model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Payment{}
	for _, p := range r.payments {
		if email == "" || p.CustomerEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*checkout.Session
	err      error
	created  []checkout.SessionRequest
}

func (f *fakeProvider) CreateSession(_ context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	id := fmt.Sprintf("cs_test_%d", len(f.created))
	return &checkout.Session{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, id string) (*checkout.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, checkout.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

type fakeCovers struct {
	err  error
	seen string
}

func (f *fakeCovers) UploadCover(_ context.Context, bookID, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.seen = string(b)
	return "https://storage.googleapis.com/covers/" + bookID, nil
}

type fakeWriter struct {
	text string
	err  error
}

func (f fakeWriter) DraftBlurb(context.Context, string, string, string) (string, error) {
	return f.text, f.err
}

