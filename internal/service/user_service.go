package service

import (
	"context"
	"strings"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

type ProfileInput struct {
	Name     string
	PhotoURL string
}

type UserService interface {
	// Login records the caller on first sight and refreshes lastLoginAt afterwards.
	Login(ctx context.Context, actor *identity.Identity, in ProfileInput) (*model.User, bool, error)
	Me(ctx context.Context, actor *identity.Identity) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int64, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)
}

type userService struct {
	users   repository.UserRepository
	timeout time.Duration
	now     func() time.Time
}

func NewUserService(users repository.UserRepository, timeout time.Duration) UserService {
	return &userService{users: users, timeout: timeout, now: time.Now}
}

func (s *userService) Login(ctx context.Context, actor *identity.Identity, in ProfileInput) (*model.User, bool, error) {
	if err := requireActor(actor); err != nil {
		return nil, false, err
	}
	now := s.now()
	u := &model.User{
		Email:       strings.ToLower(actor.Email),
		Name:        strings.TrimSpace(in.Name),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
		Role:        model.RoleUser,
		LastLoginAt: &now,
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	saved, created, err := s.users.Upsert(ctx, u)
	if err != nil {
		return nil, false, storeErr(err, ErrNotFound)
	}
	return saved, created, nil
}

func (s *userService) Me(ctx context.Context, actor *identity.Identity) (*model.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	u, err := s.users.FindByEmail(ctx, strings.ToLower(actor.Email))
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	// A role claim on the token overrides the stored role.
	if actor.Role.Valid() {
		u.Role = actor.Role
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	limit, offset = clampPage(limit, offset)
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	list, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, storeErr(err, ErrNotFound)
	}
	return list, total, nil
}

func (s *userService) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound)
	}
	return u, nil
}
