package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/auditdays/internal/testutil"
)

func TestUserStore_EnsureAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewDB(t)
	users := NewUserStore(database)

	inserted, err := EnsureUser(ctx, database, " Admin@Example.com ", "s3cret", RoleAdmin)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = EnsureUser(ctx, database, "admin@example.com", "other", RoleAdmin)
	require.NoError(t, err)
	assert.False(t, inserted)

	u, ok, err := users.Authenticate(ctx, "ADMIN@example.com", "s3cret")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.True(t, u.IsAdmin())
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, ok, err = users.Authenticate(ctx, "admin@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = users.Authenticate(ctx, "nobody@example.com", "s3cret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureUser_SkipsBlankCredentials(t *testing.T) {
	inserted, err := EnsureUser(context.Background(), testutil.NewDB(t), "", "", RoleAdmin)
	require.NoError(t, err)
	assert.False(t, inserted)
}
