package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookCRUD(t *testing.T) {
	store := newMemStore()
	covers := &fakeCovers{}
	svc := NewBookService(store.set().Books, covers, time.Second)
	ctx := context.Background()

	_, err := svc.Create(ctx, reader, BookInput{Title: "Dune", Author: "Herbert"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Create(ctx, librarian, BookInput{Title: " ", Author: "Herbert"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, librarian, BookInput{Title: "Dune", Author: "Herbert", Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	b, err := svc.Create(ctx, librarian, BookInput{Title: "Dune", Author: "Herbert", Price: 25, Category: "scifi"})
	require.NoError(t, err)
	assert.Equal(t, model.BookStatusPublished, b.Status)
	assert.Equal(t, librarian.Email, b.LibrarianEmail)

	hidden, err := svc.Create(ctx, librarian, BookInput{Title: "Notes", Author: "Lib", Status: model.BookStatusUnpublished})
	require.NoError(t, err)

	list, total, err := svc.List(ctx, BookQuery{Search: "dune"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, list[0].ID)

	mine, err := svc.ListByLibrarian(ctx, librarian)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.Update(ctx, stranger, b.ID, BookInput{Title: "Dune", Author: "Herbert"})
	assert.ErrorIs(t, err, ErrForbidden)
	updated, err := svc.Update(ctx, admin, hidden.ID, BookInput{Title: "Notes", Author: "Lib", Status: model.BookStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, model.BookStatusPublished, updated.Status)

	withCover, err := svc.UploadCover(ctx, librarian, b.ID, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/covers/"+b.ID, withCover.Image)
	assert.Equal(t, "png-bytes", covers.seen)
	_, err = svc.UploadCover(ctx, librarian, b.ID, "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, svc.Delete(ctx, librarian, b.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadCoverFailures(t *testing.T) {
	store := newMemStore()
	store.books["b1"] = model.Book{ID: "b1", Title: "Dune", LibrarianEmail: librarian.Email}
	ctx := context.Background()

	svc := NewBookService(store.set().Books, nil, time.Second)
	_, err := svc.UploadCover(ctx, librarian, "b1", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	svc = NewBookService(store.set().Books, &fakeCovers{err: errors.New("bucket gone")}, time.Second)
	_, err = svc.UploadCover(ctx, librarian, "b1", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, store.books["b1"].Image)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, defaultPageSize, 0},
		{500, 10, maxPageSize, 10},
		{5, -3, 5, 0},
	}
	for _, tt := range tests {
		l, o := clampPage(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, l)
		assert.Equal(t, tt.wantOffset, o)
	}
}
