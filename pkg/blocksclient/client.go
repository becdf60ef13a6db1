// Package blocksclient assembles transports and block services from one
// configuration.
package blocksclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	internalhttp "github.com/fivetwenty-io/blocks-sdk/internal/http"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/commerce"
	"github.com/fivetwenty-io/blocks-sdk/pkg/identity"
)

// Block names known to the client.
const (
	BlockIdentity = "identity"
	BlockCommerce = "commerce"
)

// Static errors for err113 compliance.
var (
	ErrBlockNotConfigured = errors.New("block is not configured")
	ErrInvalidBaseURL     = errors.New("invalid block base URL")
)

// Config configures every block client.
type Config struct {
	// Blocks maps a block name to its base URL.
	Blocks map[string]string

	// APIKey is sent as X-API-Key on every request.
	APIKey string

	// TokenProvider is called on every attempt for a bearer token.
	TokenProvider func(ctx context.Context) (string, error)

	// HeaderProvider adds further dynamic headers; it wins over TokenProvider.
	HeaderProvider blocks.HeaderProvider

	Headers      map[string]string
	UserAgent    string
	Retry        *blocks.RetryConfig
	Timeout      time.Duration
	Logger       blocks.Logger
	Debug        bool
	Interceptors *blocks.InterceptorChain
	HTTPClient   *http.Client
}

// Client holds one transport per configured block.
type Client struct {
	transports map[string]*internalhttp.Client
}

// New validates cfg and builds a transport for every block.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, blocks.ErrConfigRequired
	}

	if len(cfg.Blocks) == 0 {
		return nil, constants.ErrNoBlocksConfigured
	}

	opts := createHTTPClientOptions(cfg)
	client := &Client{transports: make(map[string]*internalhttp.Client, len(cfg.Blocks))}

	for name, rawURL := range cfg.Blocks {
		baseURL, err := normalizeBaseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", name, err)
		}

		client.transports[name] = internalhttp.NewClient(baseURL, opts...)
	}

	return client, nil
}

// createHTTPClientOptions builds transport options shared by every block.
func createHTTPClientOptions(cfg *Config) []internalhttp.Option {
	var opts []internalhttp.Option

	if cfg.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(cfg.Logger))
	}

	if cfg.Debug {
		opts = append(opts, internalhttp.WithDebug(true))
	}

	if cfg.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(cfg.UserAgent))
	}

	if cfg.Retry != nil {
		opts = append(opts, internalhttp.WithRetryPolicy(cfg.Retry))
	}

	if cfg.Timeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(cfg.Timeout))
	}

	static := map[string]string{}
	for key, value := range cfg.Headers {
		static[key] = value
	}

	if cfg.APIKey != "" {
		static[constants.HeaderAPIKey] = cfg.APIKey
	}

	if len(static) > 0 {
		opts = append(opts, internalhttp.WithHeaders(static))
	}

	var providers []blocks.HeaderProvider
	if cfg.TokenProvider != nil {
		providers = append(providers, blocks.BearerToken(cfg.TokenProvider))
	}

	if cfg.HeaderProvider != nil {
		providers = append(providers, cfg.HeaderProvider)
	}

	switch len(providers) {
	case 0:
	case 1:
		opts = append(opts, internalhttp.WithHeaderProvider(providers[0]))
	default:
		opts = append(opts, internalhttp.WithHeaderProvider(blocks.ChainHeaders(providers...)))
	}

	if cfg.Interceptors != nil {
		opts = append(opts, internalhttp.WithInterceptors(cfg.Interceptors))
	}

	if cfg.HTTPClient != nil {
		opts = append(opts, internalhttp.WithHTTPClient(cfg.HTTPClient))
	}

	return opts
}

func normalizeBaseURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", constants.ErrBlockURLRequired
	}

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidBaseURL, rawURL)
	}

	return strings.TrimSuffix(parsed.String(), "/"), nil
}

// Blocks returns the configured block names, sorted.
func (c *Client) Blocks() []string {
	names := make([]string, 0, len(c.transports))
	for name := range c.transports {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Transport returns the raw transport of the named block.
func (c *Client) Transport(name string) (blocks.Transport, error) {
	transport, ok := c.transports[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotConfigured, name)
	}

	return transport, nil
}

// BaseURL returns the base URL of the named block.
func (c *Client) BaseURL(name string) (string, error) {
	transport, ok := c.transports[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBlockNotConfigured, name)
	}

	return transport.BaseURL(), nil
}

// Identity returns the identity block service.
func (c *Client) Identity() (*identity.Service, error) {
	transport, err := c.Transport(BlockIdentity)
	if err != nil {
		return nil, err
	}

	return identity.NewService(transport), nil
}

// Commerce returns the commerce block service.
func (c *Client) Commerce() (*commerce.Service, error) {
	transport, err := c.Transport(BlockCommerce)
	if err != nil {
		return nil, err
	}

	return commerce.NewService(transport), nil
}
