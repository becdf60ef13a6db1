package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/redis/go-redis/v9"
)

// TokenStore persists the current token. Get returns nil, nil when no token
// is stored.
type TokenStore interface {
	Get(ctx context.Context) (*Token, error)
	Set(ctx context.Context, token *Token) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the token in process memory.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Get returns a copy of the stored token.
func (s *MemoryTokenStore) Get(ctx context.Context) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil, nil
	}

	token := *s.token

	return &token, nil
}

// Set stores a copy of token.
func (s *MemoryTokenStore) Set(ctx context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil {
		s.token = nil

		return nil
	}

	stored := *token
	s.token = &stored

	return nil
}

// Clear removes the stored token.
func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	return s.Set(ctx, nil)
}

// DefaultRedisKey is the key tokens are stored under in Redis.
const DefaultRedisKey = "blocks:token"

// RedisTokenStore shares one token between processes through Redis. Stored
// tokens expire from Redis together with the token itself.
type RedisTokenStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisTokenStore creates a store using key (DefaultRedisKey when empty).
func NewRedisTokenStore(client redis.Cmdable, key string) *RedisTokenStore {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisTokenStore{client: client, key: key}
}

// Get reads the token from Redis.
func (s *RedisTokenStore) Get(ctx context.Context) (*Token, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read token from redis: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode stored token: %w", err)
	}

	return &token, nil
}

// Set writes the token to Redis.
func (s *RedisTokenStore) Set(ctx context.Context, token *Token) error {
	if token == nil {
		return s.Clear(ctx)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	var ttl time.Duration
	if !token.ExpiresAt.IsZero() {
		ttl = time.Until(token.ExpiresAt)
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token to redis: %w", err)
	}

	return nil
}

// Clear deletes the token from Redis.
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}

	return nil
}

// DefaultKeyringService is the keyring service name used by the CLI.
const DefaultKeyringService = "blocks-cli"

// KeyringTokenStore keeps the token in the operating system keyring.
type KeyringTokenStore struct {
	ring keyring.Keyring
	key  string
}

// NewKeyringTokenStore creates a store saving under key in ring.
func NewKeyringTokenStore(ring keyring.Keyring, key string) *KeyringTokenStore {
	if key == "" {
		key = "token"
	}

	return &KeyringTokenStore{ring: ring, key: key}
}

// OpenKeyring opens the system keyring, falling back to an encrypted file
// under fileDir when no native backend is available.
func OpenKeyring(service, fileDir string, password keyring.PromptFunc) (keyring.Keyring, error) {
	if service == "" {
		service = DefaultKeyringService
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:      service,
		FileDir:          fileDir,
		FilePasswordFunc: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return ring, nil
}

// Get reads the token from the keyring.
func (s *KeyringTokenStore) Get(ctx context.Context) (*Token, error) {
	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read token from keyring: %w", err)
	}

	var token Token
	if err := json.Unmarshal(item.Data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode stored token: %w", err)
	}

	return &token, nil
}

// Set writes the token to the keyring.
func (s *KeyringTokenStore) Set(ctx context.Context, token *Token) error {
	if token == nil {
		return s.Clear(ctx)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	err = s.ring.Set(keyring.Item{
		Key:         s.key,
		Data:        data,
		Label:       "blocks API token",
		Description: "Bearer token for the blocks API",
	})
	if err != nil {
		return fmt.Errorf("failed to write token to keyring: %w", err)
	}

	return nil
}

// Clear removes the token from the keyring.
func (s *KeyringTokenStore) Clear(ctx context.Context) error {
	err := s.ring.Remove(s.key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove token from keyring: %w", err)
	}

	return nil
}
