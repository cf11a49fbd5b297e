package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/storefront/internal/app/storage"
)

func TestOpen_RejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "not-a-redis-url", "")
	assert.Error(t, err)
}

func TestStoreIntegration(t *testing.T) {
	url := os.Getenv("STOREFRONT_REDIS_URL")
	if url == "" {
		t.Skip("STOREFRONT_REDIS_URL not set; skipping redis integration test")
	}

	ctx := context.Background()
	store, err := Open(ctx, url, "storefront-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, storage.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, storage.TokenKey, "tok-1"))
	got, err := store.Get(ctx, storage.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, store.Delete(ctx, storage.TokenKey))
	_, err = store.Get(ctx, storage.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
