package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	// Upsert inserts u when no user has its email, otherwise refreshes the stored
	// user's last login. The stored record is returned with created=true on insert.
	Upsert(ctx context.Context, u *model.User) (*model.User, bool, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int64, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, u *model.User) (*model.User, bool, error) {
	if r.db == nil {
		return nil, false, ErrDBNotReady
	}
	err := translate(r.db.WithContext(ctx).Create(u).Error)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return nil, false, err
	}
	now := time.Now()
	if err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", u.Email).
		Update("last_login_at", now).Error; err != nil {
		return nil, false, err
	}
	existing, err := r.FindByEmail(ctx, u.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.User
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role model.Role) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
