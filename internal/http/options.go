package http

import (
	"net/http"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger blocks.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent default header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the retry count and delay bounds, keeping the default
// multiplier and retryable statuses.
func WithRetryConfig(maxRetries int, initialDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.MaxRetries = maxRetries
		c.retry.InitialDelay = initialDelay
		c.retry.MaxDelay = maxDelay
	}
}

// WithRetryPolicy replaces the whole retry configuration.
func WithRetryPolicy(cfg *blocks.RetryConfig) Option {
	return func(c *Client) {
		if cfg != nil {
			policy := *cfg
			c.retry = &policy
		}
	}
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHeaders sets static headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.staticHeaders = blocks.StaticHeaders(headers)
	}
}

// WithHeaderProvider sets a provider resolved before every attempt.
func WithHeaderProvider(provider blocks.HeaderProvider) Option {
	return func(c *Client) {
		c.headerProvider = provider
	}
}

// WithInterceptors sets the interceptor chain.
func WithInterceptors(chain *blocks.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithHTTPClient sets the underlying HTTP client. Its Transport is shared by
// every call; its Timeout is replaced by the per-attempt timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil && httpClient.Transport != nil {
			c.transport = httpClient.Transport
		}
	}
}

// WithRequestIDGenerator replaces the request id generator.
func WithRequestIDGenerator(generate func() string) Option {
	return func(c *Client) {
		if generate != nil {
			c.newRequestID = generate
		}
	}
}
