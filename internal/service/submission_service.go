package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

// BlurbWriter drafts a catalog description for a submission.
type BlurbWriter interface {
	DraftBlurb(ctx context.Context, title, author, category string) (string, error)
}

type SubmissionService interface {
	Submit(ctx context.Context, actor *identity.Identity, in BookInput) (*model.NewBook, error)
	List(ctx context.Context, actor *identity.Identity) ([]model.NewBook, error)
	Review(ctx context.Context, actor *identity.Identity, id string, status model.NewBookStatus) (*model.NewBook, error)
	Delete(ctx context.Context, actor *identity.Identity, id string) error
	DraftBlurb(ctx context.Context, actor *identity.Identity, id string) (string, error)
}

type submissionService struct {
	newBooks repository.SubmissionRepository
	books    repository.BookRepository
	writer   BlurbWriter
	timeout  time.Duration
}

func NewSubmissionService(newBooks repository.SubmissionRepository, books repository.BookRepository, writer BlurbWriter, timeout time.Duration) SubmissionService {
	return &submissionService{newBooks: newBooks, books: books, writer: writer, timeout: timeout}
}

func (s *submissionService) Submit(ctx context.Context, actor *identity.Identity, in BookInput) (*model.NewBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Role.Privileged() {
		return nil, ErrForbidden
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	nb := &model.NewBook{
		Title:          in.Title,
		Author:         in.Author,
		Image:          in.Image,
		Price:          in.Price,
		Category:       in.Category,
		Description:    in.Description,
		LibrarianEmail: actor.Email,
		Status:         model.NewBookStatusPending,
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.newBooks.Create(ctx, nb); err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return nb, nil
}

func (s *submissionService) List(ctx context.Context, actor *identity.Identity) ([]model.NewBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	owner := actor.Email
	if actor.HasRole(model.RoleAdmin) {
		owner = ""
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	list, err := s.newBooks.List(ctx, owner)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return list, nil
}

// Review approves or rejects a pending submission. Approval publishes a Book
// and links it back through BookID.
func (s *submissionService) Review(ctx context.Context, actor *identity.Identity, id string, status model.NewBookStatus) (*model.NewBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.HasRole(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	if status != model.NewBookStatusApproved && status != model.NewBookStatusRejected {
		return nil, invalid("status must be approved or rejected")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	nb, err := s.newBooks.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	if nb.Status != model.NewBookStatusPending {
		return nil, fmt.Errorf("%w: submission is %s", ErrInvalidStateTransition, nb.Status)
	}

	var book *model.Book
	if status == model.NewBookStatusApproved {
		book = &model.Book{
			Title:          nb.Title,
			Author:         nb.Author,
			Image:          nb.Image,
			Price:          nb.Price,
			Category:       nb.Category,
			Description:    nb.Description,
			LibrarianEmail: nb.LibrarianEmail,
			Status:         model.BookStatusPublished,
		}
		if err := s.books.Create(ctx, book); err != nil {
			return nil, storeErr(err, ErrNotFound)
		}
	}
	bookID := ""
	if book != nil {
		bookID = book.ID
	}
	moved, err := s.newBooks.Review(ctx, id, status, bookID)
	if err != nil || !moved {
		if book != nil {
			if derr := s.books.Delete(ctx, book.ID); derr != nil {
				log.Printf("[catalog] orphan book cleanup failed book=%s err=%v", book.ID, derr)
			}
		}
		if err != nil {
			return nil, storeErr(err, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: submission was reviewed concurrently", ErrInvalidStateTransition)
	}
	nb.Status = status
	nb.BookID = bookID
	log.Printf("[catalog] reviewed submission=%s status=%s book=%s", nb.ID, status, bookID)
	return nb, nil
}

func (s *submissionService) Delete(ctx context.Context, actor *identity.Identity, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	nb, err := s.newBooks.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, ErrNotFound)
	}
	if !actor.HasRole(model.RoleAdmin) {
		if !sameEmail(nb.LibrarianEmail, actor.Email) {
			return ErrForbidden
		}
		if nb.Status != model.NewBookStatusPending {
			return fmt.Errorf("%w: submission is %s", ErrInvalidStateTransition, nb.Status)
		}
	}
	return storeErr(s.newBooks.Delete(ctx, id), ErrNotFound)
}

func (s *submissionService) DraftBlurb(ctx context.Context, actor *identity.Identity, id string) (string, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	if s.writer == nil {
		return "", fmt.Errorf("%w: blurb assistant is not configured", ErrUpstreamUnavailable)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	nb, err := s.newBooks.FindByID(ctx, id)
	if err != nil {
		return "", storeErr(err, ErrNotFound)
	}
	if !sameEmail(nb.LibrarianEmail, actor.Email) {
		return "", ErrForbidden
	}
	text, err := s.writer.DraftBlurb(ctx, nb.Title, nb.Author, nb.Category)
	if err != nil {
		log.Printf("[catalog] blurb draft failed submission=%s err=%v", nb.ID, err)
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return text, nil
}
