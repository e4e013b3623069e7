package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLoginAndRoles(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store.set().Users, time.Second)
	ctx := context.Background()

	u, created, err := svc.Login(ctx, &identity.Identity{UID: "u1", Email: "New@Example.com"}, ProfileInput{Name: " Ada "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, model.RoleUser, u.Role)

	promoted, err := svc.UpdateRole(ctx, u.ID, model.RoleLibrarian)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLibrarian, promoted.Role)

	again, created, err := svc.Login(ctx, &identity.Identity{UID: "u1", Email: "new@example.com"}, ProfileInput{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.RoleLibrarian, again.Role, "login must not reset the role")

	me, err := svc.Me(ctx, &identity.Identity{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleLibrarian, me.Role)
	me, err = svc.Me(ctx, &identity.Identity{Email: "new@example.com", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, me.Role)

	_, err = svc.UpdateRole(ctx, u.ID, "owner")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateRole(ctx, "missing", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}
