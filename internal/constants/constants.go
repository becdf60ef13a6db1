package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default per-attempt timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as connectivity checks.
	ShortHTTPTimeout = 10 * time.Second

	// TokenRefreshLeeway is how long before expiry a token is considered stale.
	TokenRefreshLeeway = 30 * time.Second
)

// Retry defaults.
const (
	// DefaultRetryMax is the default maximum number of retries after the first attempt.
	DefaultRetryMax = 3

	// DefaultRetryInitialDelay is the base delay before the first retry.
	DefaultRetryInitialDelay = 500 * time.Millisecond

	// DefaultRetryMultiplier is the exponential growth factor between retries.
	DefaultRetryMultiplier = 2.0

	// DefaultRetryWaitMax caps a single back-off delay.
	DefaultRetryWaitMax = 30 * time.Second

	// RetryJitterFraction is the +/- spread applied to every computed delay.
	RetryJitterFraction = 0.25

	// MinRetryDelay is the floor applied after jitter so a delay is never zero.
	MinRetryDelay = time.Millisecond
)

// Default retryable HTTP statuses.
const (
	StatusTooManyRequests    = 429
	StatusBadGateway         = 502
	StatusServiceUnavailable = 503
	StatusGatewayTimeout     = 504
)

// Header names.
const (
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderRequestID     = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-Key"

	MediaTypeJSON = "application/json"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "blocks-sdk-go"

// Pagination and concurrency limits.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 25

	// StandardPageSize is the page size used when walking every page.
	StandardPageSize = 100

	// DefaultConcurrencyLimit bounds concurrent page fetches.
	DefaultConcurrencyLimit = 3
)

// Circuit breaker defaults.
const (
	CircuitBreakerThreshold        = 5
	CircuitBreakerTimeout          = 30 * time.Second
	CircuitBreakerSuccessThreshold = 2

	StatusOpen     = "open"
	StatusHalfOpen = "half-open"
	StatusClosed   = "closed"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// MinimumArgumentCount is used by commands that take KEY VALUE pairs.
const MinimumArgumentCount = 2
