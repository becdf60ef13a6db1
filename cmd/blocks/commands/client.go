package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/99designs/keyring"
	"github.com/fivetwenty-io/blocks-sdk/internal/auth"
	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocksclient"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// keyringPasswordEnv holds the password of the encrypted file keyring.
const keyringPasswordEnv = "BLOCKS_KEYRING_PASSWORD"

// openKeyring opens the keyring holding the CLI token. Tests replace it.
var openKeyring = func() (keyring.Keyring, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	return auth.OpenKeyring(auth.DefaultKeyringService, filepath.Join(dir, "keyring"),
		keyring.FixedStringPrompt(os.Getenv(keyringPasswordEnv)))
}

// openTokenStore returns the configured token store and a function that
// releases it.
func openTokenStore(config *Config) (auth.TokenStore, func(), error) {
	switch config.TokenStore {
	case TokenStoreRedis:
		addr := config.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}

		client := redis.NewClient(&redis.Options{Addr: addr})

		return auth.NewRedisTokenStore(client, auth.DefaultRedisKey), func() { _ = client.Close() }, nil
	case TokenStoreKeyring, "":
		ring, err := openKeyring()
		if err != nil {
			return nil, nil, err
		}

		return auth.NewKeyringTokenStore(ring, ""), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: token_store %s", constants.ErrInvalidConfigValue, config.TokenStore)
	}
}

// newTokenManager opens the token store and wraps it in a manager.
func newTokenManager(config *Config) (*auth.TokenManager, func(), error) {
	store, closeStore, err := openTokenStore(config)
	if err != nil {
		return nil, nil, err
	}

	return auth.NewTokenManager(store, auth.WithManagerLogger(cliLogger())), closeStore, nil
}

// cliLogger logs to stderr when --verbose is set.
func cliLogger() blocks.Logger {
	if !viper.GetBool("verbose") {
		return blocks.NoopLogger{}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})

	return blocks.NewSlogLogger(slog.New(handler))
}

// newBlocksClient builds a client from the CLI configuration. The returned
// cleanup function must be called once the client is no longer needed.
func newBlocksClient(config *Config) (*blocksclient.Client, func(), error) {
	manager, closeStore, err := newTokenManager(config)
	if err != nil {
		return nil, nil, err
	}

	cleanup := []func(){closeStore}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	logger := cliLogger()
	verbose := viper.GetBool("verbose")

	cfg := &blocksclient.Config{
		Blocks:    config.Blocks,
		APIKey:    config.APIKey,
		UserAgent: "blocks-cli/" + Version,
		Logger:    logger,
		Debug:     verbose,
		TokenProvider: func(ctx context.Context) (string, error) {
			token, err := manager.GetToken(ctx)
			if errors.Is(err, constants.ErrNotAuthenticated) {
				return "", nil
			}

			return token, err
		},
	}

	if config.Timeout != "" {
		timeout, err := time.ParseDuration(config.Timeout)
		if err != nil {
			closeAll()

			return nil, nil, fmt.Errorf("invalid timeout %q: %w", config.Timeout, err)
		}

		cfg.Timeout = timeout
	}

	if config.MaxRetries != nil {
		retry := blocks.DefaultRetryConfig()
		retry.MaxRetries = *config.MaxRetries
		cfg.Retry = retry
	}

	chain := blocks.NewInterceptorChain()

	if verbose {
		chain.Merge(blocks.LoggingInterceptors(logger))
	}

	if config.NATSURL != "" {
		conn, err := blocks.ConnectEvents(config.NATSURL, "blocks-cli")
		if err != nil {
			closeAll()

			return nil, nil, err
		}

		cleanup = append(cleanup, func() { _ = conn.Drain() })
		chain.Merge(blocks.EventInterceptors(conn, blocks.DefaultEventSubject, logger))
	}

	cfg.Interceptors = chain

	client, err := blocksclient.New(cfg)
	if err != nil {
		closeAll()

		return nil, nil, err
	}

	return client, closeAll, nil
}
