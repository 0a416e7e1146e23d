package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejg/cestas/internal/datamodels/user"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, "Ana", " Ana@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.RoleCustomer, u.Role)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.Password)

	_, err = e.users.Register(ctx, "Ana 2", "ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.users.Register(ctx, "", "x@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.users.Register(ctx, "X", "not-an-email", "secret123")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.users.Register(ctx, "X", "x@example.com", "123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = e.users.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = e.users.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	token, logged, err := e.users.Login(ctx, "ANA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	id, err := e.users.Identify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.False(t, id.IsAdmin())

	_, err = e.users.Identify(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.users.Identify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRoleChangesApplyToLiveTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.Register(ctx, "Bia", "bia@example.com", "secret123")
	require.NoError(t, err)
	token, _, err := e.users.Login(ctx, "bia@example.com", "secret123")
	require.NoError(t, err)

	_, err = e.users.Promote(ctx, e.customer, "bia@example.com")
	assert.ErrorIs(t, err, ErrForbidden)

	promoted, err := e.users.Promote(ctx, e.admin, "bia@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, promoted.Role)

	id, err := e.users.Identify(ctx, token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	admins, err := e.users.ListAdmins(ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = e.users.Demote(ctx, e.admin, e.admin.UserID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	demoted, err := e.users.Demote(ctx, e.admin, promoted.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleCustomer, demoted.Role)

	id, err = e.users.Identify(ctx, token)
	require.NoError(t, err)
	assert.False(t, id.IsAdmin())

	_, err = e.users.Promote(ctx, e.admin, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.users.Demote(ctx, e.admin, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMonitorStats(t *testing.T) {
	m := &Monitor{}
	m.RecordOrderCreated()
	m.RecordNotificationSent()
	m.RecordNotificationFailed()
	m.RecordStorageError()

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats["orders"].(map[string]interface{})["created"])
	assert.InDelta(t, 50.0, stats["notifications"].(map[string]interface{})["success_rate"], 0.001)
	assert.EqualValues(t, 1, stats["errors"].(map[string]interface{})["storage"])

	m.Reset()
	assert.Zero(t, m.OrdersCreated)
}
