package blocks

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// Params holds query string parameters. Slice values are sent as repeated
// "key[]=value" pairs and nil values are omitted.
type Params map[string]interface{}

// RequestOptions are the optional per-call settings.
type RequestOptions struct {
	// Params is encoded into the query string.
	Params Params
	// Headers override configured and dynamic headers for this call.
	Headers map[string]string
	// Timeout overrides the client's per-attempt timeout.
	Timeout time.Duration
}

// Response is a successful response. Body holds the raw JSON document and is
// nil for void responses.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	RequestID  string
}

// IsEmpty reports whether the response carried no JSON body.
func (r *Response) IsEmpty() bool {
	return r == nil || len(r.Body) == 0
}

// Transport performs JSON requests against one block. Every returned error
// is a *Error.
type Transport interface {
	Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error)
	Post(ctx context.Context, path string, body interface{}, opts *RequestOptions) (*Response, error)
	Put(ctx context.Context, path string, body interface{}, opts *RequestOptions) (*Response, error)
	Patch(ctx context.Context, path string, body interface{}, opts *RequestOptions) (*Response, error)
	Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error)
}

// RetryConfig configures retry behaviour for one client.
type RetryConfig struct {
	// MaxRetries is the maximum number of retries after the first attempt.
	// Zero disables retries.
	MaxRetries int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// BackoffMultiplier is the growth factor between consecutive delays.
	BackoffMultiplier float64
	// MaxDelay caps a single delay before jitter.
	MaxDelay time.Duration
	// RetryableStatuses lists HTTP statuses that trigger a retry.
	RetryableStatuses []int
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        constants.DefaultRetryMax,
		InitialDelay:      constants.DefaultRetryInitialDelay,
		BackoffMultiplier: constants.DefaultRetryMultiplier,
		MaxDelay:          constants.DefaultRetryWaitMax,
		RetryableStatuses: DefaultRetryableStatuses(),
	}
}

// DefaultRetryableStatuses returns the statuses retried when none are configured.
func DefaultRetryableStatuses() []int {
	return []int{
		constants.StatusTooManyRequests,
		constants.StatusBadGateway,
		constants.StatusServiceUnavailable,
		constants.StatusGatewayTimeout,
	}
}

// HeaderProvider supplies headers at request time. It is consulted once per
// physical attempt and never cached, so rotated credentials are picked up on
// the next retry.
type HeaderProvider interface {
	Headers(ctx context.Context) (map[string]string, error)
}

// StaticHeaders is a HeaderProvider with fixed values.
type StaticHeaders map[string]string

// Headers implements HeaderProvider.
func (h StaticHeaders) Headers(ctx context.Context) (map[string]string, error) {
	return maps.Clone(map[string]string(h)), nil
}

// DynamicHeaders is a HeaderProvider computed on every attempt, e.g. a bearer
// token read from a token store.
type DynamicHeaders func(ctx context.Context) (map[string]string, error)

// Headers implements HeaderProvider.
func (f DynamicHeaders) Headers(ctx context.Context) (map[string]string, error) {
	return f(ctx)
}

// BearerToken returns a dynamic provider that sets the Authorization header
// from tokenProvider. An empty token sends no Authorization header.
func BearerToken(tokenProvider func(context.Context) (string, error)) DynamicHeaders {
	return func(ctx context.Context) (map[string]string, error) {
		token, err := tokenProvider(ctx)
		if err != nil {
			return nil, err
		}

		if token == "" {
			return map[string]string{}, nil
		}

		return map[string]string{constants.HeaderAuthorization: "Bearer " + token}, nil
	}
}

// ChainHeaders merges several providers in order; later providers win.
func ChainHeaders(providers ...HeaderProvider) HeaderProvider {
	return DynamicHeaders(func(ctx context.Context) (map[string]string, error) {
		merged := map[string]string{}

		for _, provider := range providers {
			if provider == nil {
				continue
			}

			headers, err := provider.Headers(ctx)
			if err != nil {
				return nil, err
			}

			maps.Copy(merged, headers)
		}

		return merged, nil
	})
}
