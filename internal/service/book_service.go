package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CoverStore persists cover images and returns their public URL.
type CoverStore interface {
	UploadCover(ctx context.Context, bookID, contentType string, r io.Reader) (string, error)
}

type BookInput struct {
	Title       string
	Author      string
	Image       string
	Price       float64
	Category    string
	Description string
	Quantity    int
	Status      model.BookStatus
}

func (in *BookInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	if in.Title == "" || len(in.Title) > 200 {
		return invalid("invalid title")
	}
	if in.Author == "" {
		return invalid("author is required")
	}
	if in.Price < 0 {
		return invalid("price must not be negative")
	}
	if in.Quantity < 0 {
		return invalid("quantity must not be negative")
	}
	if strings.HasPrefix(in.Image, "data:") {
		return invalid("image must be a URL, not data URI")
	}
	switch in.Status {
	case "":
		in.Status = model.BookStatusPublished
	case model.BookStatusPublished, model.BookStatusUnpublished:
	default:
		return invalid("unknown status %q", in.Status)
	}
	return nil
}

type BookQuery struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

type BookService interface {
	List(ctx context.Context, q BookQuery) ([]model.Book, int64, error)
	ListByLibrarian(ctx context.Context, actor *identity.Identity) ([]model.Book, error)
	Get(ctx context.Context, id string) (*model.Book, error)
	Create(ctx context.Context, actor *identity.Identity, in BookInput) (*model.Book, error)
	Update(ctx context.Context, actor *identity.Identity, id string, in BookInput) (*model.Book, error)
	Delete(ctx context.Context, actor *identity.Identity, id string) error
	UploadCover(ctx context.Context, actor *identity.Identity, id, contentType string, r io.Reader) (*model.Book, error)
}

type bookService struct {
	books   repository.BookRepository
	covers  CoverStore
	timeout time.Duration
}

// NewBookService accepts a nil covers store; uploads then fail as unavailable.
func NewBookService(books repository.BookRepository, covers CoverStore, timeout time.Duration) BookService {
	return &bookService{books: books, covers: covers, timeout: timeout}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *bookService) List(ctx context.Context, q BookQuery) ([]model.Book, int64, error) {
	limit, offset := clampPage(q.Limit, q.Offset)
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	books, total, err := s.books.List(ctx, repository.BookFilter{
		Status:   string(model.BookStatusPublished),
		Category: strings.TrimSpace(q.Category),
		Search:   strings.TrimSpace(q.Search),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, 0, storeErr(err, ErrNotFound)
	}
	return books, total, nil
}

func (s *bookService) ListByLibrarian(ctx context.Context, actor *identity.Identity) ([]model.Book, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	books, _, err := s.books.List(ctx, repository.BookFilter{LibrarianEmail: actor.Email, Limit: maxPageSize})
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return books, nil
}

func (s *bookService) Get(ctx context.Context, id string) (*model.Book, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return b, nil
}

func (s *bookService) Create(ctx context.Context, actor *identity.Identity, in BookInput) (*model.Book, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Role.Privileged() {
		return nil, ErrForbidden
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	b := &model.Book{
		Title:          in.Title,
		Author:         in.Author,
		Image:          in.Image,
		Price:          in.Price,
		Category:       in.Category,
		Description:    in.Description,
		Quantity:       in.Quantity,
		LibrarianEmail: actor.Email,
		Status:         in.Status,
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.books.Create(ctx, b); err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return b, nil
}

func (s *bookService) Update(ctx context.Context, actor *identity.Identity, id string, in BookInput) (*model.Book, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	if !ownerOrAdmin(actor, b.LibrarianEmail) {
		return nil, ErrForbidden
	}
	b.Title = in.Title
	b.Author = in.Author
	if in.Image != "" {
		b.Image = in.Image
	}
	b.Price = in.Price
	b.Category = in.Category
	b.Description = in.Description
	b.Quantity = in.Quantity
	b.Status = in.Status
	if err := s.books.Update(ctx, b); err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return b, nil
}

func (s *bookService) Delete(ctx context.Context, actor *identity.Identity, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.HasRole(model.RoleAdmin) {
		return ErrForbidden
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return storeErr(s.books.Delete(ctx, id), ErrNotFound)
}

func (s *bookService) UploadCover(ctx context.Context, actor *identity.Identity, id, contentType string, r io.Reader) (*model.Book, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("cover must be an image, got %q", contentType)
	}
	if s.covers == nil {
		return nil, fmt.Errorf("%w: cover storage is not configured", ErrUpstreamUnavailable)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	if !ownerOrAdmin(actor, b.LibrarianEmail) {
		return nil, ErrForbidden
	}
	url, err := s.covers.UploadCover(ctx, b.ID, contentType, r)
	if err != nil {
		log.Printf("[books] cover upload failed book=%s err=%v", b.ID, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if err := s.books.UpdateImage(ctx, b.ID, url); err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	b.Image = url
	return b, nil
}
