// Package identity verifies bearer tokens issued by the auth provider.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/book-courier-backend/internal/model"
)

var (
	ErrUnauthorized = errors.New("identity: unauthorized")

	// ErrUnavailable means the token could not be checked at all. Timeouts also
	// wrap context.DeadlineExceeded.
	ErrUnavailable = errors.New("identity: verifier unavailable")
)

// Identity is the verified caller. Role is empty when the token carries no role claim.
type Identity struct {
	UID   string
	Email string
	Role  model.Role
}

func (id *Identity) HasRole(roles ...model.Role) bool {
	if id == nil {
		return false
	}
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

func fromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{UID: uid}
	if email, ok := claims["email"].(string); ok {
		id.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if role, ok := claims["role"].(string); ok && model.Role(role).Valid() {
		id.Role = model.Role(role)
	}
	return id
}
