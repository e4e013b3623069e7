package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

var (
	ErrUpstreamUnavailable    = errors.New("upstream_unavailable")
	ErrUpstreamTimeout        = errors.New("upstream_timeout")
	ErrSessionNotFound        = errors.New("session_not_found")
	ErrOrderNotFound          = errors.New("order_not_found")
	ErrNotFound               = errors.New("not_found")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrInvalidInput           = errors.New("invalid_input")
)

const DefaultTimeout = 10 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeErr maps a repository failure onto the service sentinels. notFound is
// returned for missing documents so callers can pick ErrOrderNotFound etc.
func storeErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: store: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: store: %v", ErrUpstreamUnavailable, err)
}

func providerErr(err error) error {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	case errors.Is(err, checkout.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	case errors.Is(err, checkout.ErrRejected):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

func requireActor(actor *identity.Identity) error {
	if actor == nil || actor.Email == "" {
		return ErrUnauthorized
	}
	return nil
}

func sameEmail(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ownerOrAdmin reports whether actor owns a document stamped with email.
func ownerOrAdmin(actor *identity.Identity, email string) bool {
	return actor.HasRole(model.RoleAdmin) || sameEmail(email, actor.Email)
}
