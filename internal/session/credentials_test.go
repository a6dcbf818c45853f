package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCredentialStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "default.token")
	store := NewFileCredentialStore(path)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save(ctx, "tok-1"))
	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestRedisCredentialStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisCredentialStore(client, "work")

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save(ctx, "tok-1"))
	got, err := mr.Get("storefront:credential:work")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("storefront:credential:work"))
}

func TestRedisCredentialStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisCredentialStore(client, "")
	mr.Close()

	_, err := store.Load(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredential)
}

func TestSession_BootstrapFromFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileCredentialStore(filepath.Join(t.TempDir(), "default.token"))
	require.NoError(t, store.Save(ctx, "tok-1"))

	s := New(newFakeAuthClient(), store, nil)
	s.Bootstrap(ctx)

	assert.True(t, s.Authenticated())
}
