package auth

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"golang.org/x/sync/singleflight"
)

// Refresher exchanges an expired token for a new one.
type Refresher func(ctx context.Context, current *Token) (*Token, error)

// TokenManager hands out a valid access token, refreshing through a
// Refresher when the stored one has expired. The store is read on every
// call so a token replaced by another process is picked up immediately.
type TokenManager struct {
	store     TokenStore
	refresher Refresher
	group     singleflight.Group
	logger    blocks.Logger
}

// ManagerOption configures a TokenManager.
type ManagerOption func(*TokenManager)

// WithRefresher sets the function used to renew expired tokens.
func WithRefresher(refresher Refresher) ManagerOption {
	return func(m *TokenManager) {
		m.refresher = refresher
	}
}

// WithManagerLogger sets the logger used to report refreshes.
func WithManagerLogger(logger blocks.Logger) ManagerOption {
	return func(m *TokenManager) {
		m.logger = logger
	}
}

// NewTokenManager creates a manager backed by store. A nil store keeps
// tokens in memory.
func NewTokenManager(store TokenStore, opts ...ManagerOption) *TokenManager {
	if store == nil {
		store = NewMemoryTokenStore()
	}

	manager := &TokenManager{
		store:  store,
		logger: blocks.NoopLogger{},
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// SetToken stores a new token.
func (m *TokenManager) SetToken(ctx context.Context, token *Token) error {
	return m.store.Set(ctx, token)
}

// Logout forgets the stored token.
func (m *TokenManager) Logout(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Token returns the current token, refreshing it first when it is no longer
// valid. Concurrent callers share one refresh.
func (m *TokenManager) Token(ctx context.Context) (*Token, error) {
	token, err := m.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	if token == nil {
		return nil, constants.ErrNotAuthenticated
	}

	if token.Valid() {
		return token, nil
	}

	if m.refresher == nil {
		return nil, constants.ErrNoRefresherConfigured
	}

	result, err, shared := m.group.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		m.logger.Debug("Joined in-flight token refresh", nil)
	}

	refreshed, _ := result.(*Token)

	return refreshed, nil
}

// GetToken returns the current access token string.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// HeaderProvider returns a provider that sets the Authorization header from
// the managed token on every attempt.
func (m *TokenManager) HeaderProvider() blocks.HeaderProvider {
	return blocks.BearerToken(m.GetToken)
}

func (m *TokenManager) refresh(ctx context.Context, current *Token) (*Token, error) {
	m.logger.Info("Refreshing access token", map[string]interface{}{
		"expires_at": current.ExpiresAt,
	})

	refreshed, err := m.refresher(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if refreshed == nil || refreshed.AccessToken == "" {
		return nil, constants.ErrEmptyToken
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = current.RefreshToken
	}

	if err := m.store.Set(ctx, refreshed); err != nil {
		m.logger.Warn("Failed to persist refreshed token", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return refreshed, nil
}
