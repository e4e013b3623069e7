package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/book-courier-backend/internal/handler"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
)

type AuthMiddleware struct {
	verifier identity.Verifier
	users    repository.UserRepository
	timeout  time.Duration
}

// NewAuthMiddleware resolves roles from the token first and falls back to the
// users collection when users is non-nil.
func NewAuthMiddleware(verifier identity.Verifier, users repository.UserRepository, timeout time.Duration) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users, timeout: timeout}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized", "missing bearer token"))
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))

		ctx, cancel := context.WithTimeout(c.Request().Context(), m.timeout)
		defer cancel()
		id, err := m.verifier.Verify(ctx, tokenStr)
		if err != nil {
			return verifyFailed(ctx, c, err)
		}
		if id.Role == "" {
			id.Role = m.lookupRole(ctx, id.Email)
		}

		c.Set(handler.IdentityKey, id)
		c.Set("uid", id.UID)
		c.Set("email", id.Email)
		return next(c)
	}
}

// verifyFailed answers 401 only when the token itself was rejected.
func verifyFailed(ctx context.Context, c echo.Context, err error) error {
	if errors.Is(err, identity.ErrUnauthorized) {
		return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid_token", "token verification failed"))
	}
	log.Printf("[auth] verifier failed err=%v", err)
	status, resp := http.StatusServiceUnavailable, handler.NewErrorResponse("upstream_unavailable", "token verifier unavailable")
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status, resp = http.StatusGatewayTimeout, handler.NewErrorResponse("upstream_timeout", "token verification timed out")
	}
	resp.Error.Retryable = true
	return c.JSON(status, resp)
}

func (m *AuthMiddleware) lookupRole(ctx context.Context, email string) model.Role {
	if m.users == nil {
		return model.RoleUser
	}
	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[auth] role lookup failed email=%s err=%v", email, err)
		}
		return model.RoleUser
	}
	if !u.Role.Valid() {
		return model.RoleUser
	}
	return u.Role
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get(handler.IdentityKey).(*identity.Identity)
			if id == nil {
				return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized", "missing identity"))
			}
			if !id.HasRole(roles...) {
				return c.JSON(http.StatusForbidden, handler.NewErrorResponse("forbidden", "insufficient role"))
			}
			return next(c)
		}
	}
}
