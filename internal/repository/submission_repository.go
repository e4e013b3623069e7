package repository

import (
	"context"

	"github.com/shinyyama/book-courier-backend/internal/model"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(ctx context.Context, nb *model.NewBook) error
	FindByID(ctx context.Context, id string) (*model.NewBook, error)
	// List returns submissions by librarianEmail, or all when it is empty.
	List(ctx context.Context, librarianEmail string) ([]model.NewBook, error)
	// Review moves a pending submission to status. It reports false when the
	// submission was no longer pending.
	Review(ctx context.Context, id string, status model.NewBookStatus, bookID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, nb *model.NewBook) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate(r.db.WithContext(ctx).Create(nb).Error)
}

func (r *submissionRepository) FindByID(ctx context.Context, id string) (*model.NewBook, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var nb model.NewBook
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&nb).Error; err != nil {
		return nil, translate(err)
	}
	return &nb, nil
}

func (r *submissionRepository) List(ctx context.Context, librarianEmail string) ([]model.NewBook, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.NewBook{})
	if librarianEmail != "" {
		q = q.Where("librarian_email = ?", librarianEmail)
	}
	var list []model.NewBook
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *submissionRepository) Review(ctx context.Context, id string, status model.NewBookStatus, bookID string) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.NewBook{}).
		Where("id = ? AND status = ?", id, model.NewBookStatusPending).
		Updates(map[string]interface{}{
			"status":  status,
			"book_id": bookID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.NewBook{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
