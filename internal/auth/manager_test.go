package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/auth"
	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expiredToken() *auth.Token {
	return &auth.Token{
		AccessToken:  "old-access",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
}

func TestTokenManager_NotAuthenticated(t *testing.T) {
	t.Parallel()

	manager := auth.NewTokenManager(nil)

	_, err := manager.GetToken(context.Background())
	require.ErrorIs(t, err, constants.ErrNotAuthenticated)
}

func TestTokenManager_ValidToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := auth.NewTokenManager(auth.NewMemoryTokenStore())
	require.NoError(t, manager.SetToken(ctx, &auth.Token{AccessToken: "abc"}))

	token, err := manager.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	headers, err := manager.HeaderProvider().Headers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", headers["Authorization"])

	require.NoError(t, manager.Logout(ctx))

	_, err = manager.GetToken(ctx)
	require.ErrorIs(t, err, constants.ErrNotAuthenticated)
}

func TestTokenManager_ExpiredWithoutRefresher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := auth.NewTokenManager(nil)
	require.NoError(t, manager.SetToken(ctx, expiredToken()))

	_, err := manager.GetToken(ctx)
	require.ErrorIs(t, err, constants.ErrNoRefresherConfigured)
}

func TestTokenManager_RefreshPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := auth.NewMemoryTokenStore()
	require.NoError(t, store.Set(ctx, expiredToken()))

	var seen *auth.Token

	manager := auth.NewTokenManager(store, auth.WithRefresher(func(ctx context.Context, current *auth.Token) (*auth.Token, error) {
		seen = current

		return &auth.Token{AccessToken: "new-access", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}))

	token, err := manager.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	require.NotNil(t, seen)
	assert.Equal(t, "refresh-1", seen.RefreshToken)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
}

func TestTokenManager_RefreshFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	refreshErr := errors.New("refresh rejected")
	manager := auth.NewTokenManager(nil, auth.WithRefresher(func(context.Context, *auth.Token) (*auth.Token, error) {
		return nil, refreshErr
	}))
	require.NoError(t, manager.SetToken(ctx, expiredToken()))

	_, err := manager.GetToken(ctx)
	require.ErrorIs(t, err, refreshErr)

	manager = auth.NewTokenManager(nil, auth.WithRefresher(func(context.Context, *auth.Token) (*auth.Token, error) {
		return &auth.Token{}, nil
	}))
	require.NoError(t, manager.SetToken(ctx, expiredToken()))

	_, err = manager.GetToken(ctx)
	require.ErrorIs(t, err, constants.ErrEmptyToken)
}

func TestTokenManager_ConcurrentCallersShareRefresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var calls atomic.Int32

	release := make(chan struct{})
	manager := auth.NewTokenManager(nil, auth.WithRefresher(func(context.Context, *auth.Token) (*auth.Token, error) {
		calls.Add(1)
		<-release

		return &auth.Token{AccessToken: "shared", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}))
	require.NoError(t, manager.SetToken(ctx, expiredToken()))

	var wg sync.WaitGroup

	results := make([]string, 5)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			token, err := manager.GetToken(ctx)
			assert.NoError(t, err)

			results[i] = token
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	for _, token := range results {
		assert.Equal(t, "shared", token)
	}
}

func TestTokenManager_PicksUpExternalReplacement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := setupTestRedis(t)
	store := auth.NewRedisTokenStore(client, "")
	manager := auth.NewTokenManager(store)

	require.NoError(t, store.Set(ctx, &auth.Token{AccessToken: "first"}))

	token, err := manager.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	require.NoError(t, auth.NewRedisTokenStore(client, "").Set(ctx, &auth.Token{AccessToken: "second"}))

	token, err = manager.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}
