package blocks

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
)

// RequestContext describes one physical attempt. A fresh value, with a fresh
// RequestID, is built for every attempt of a retried call.
type RequestContext struct {
	Method    string
	Path      string
	URL       string
	Body      []byte
	Headers   http.Header
	RequestID string
	// Attempt is 1 for the first physical attempt.
	Attempt int
	// Status and Duration are set once a response (or failure) is known.
	// Duration covers this attempt only, never back-off sleeps.
	Status   int
	Duration time.Duration
	Metadata map[string]interface{}
}

// RequestInterceptor is called before every physical attempt. Returning an
// error aborts the call without any network I/O.
type RequestInterceptor func(ctx context.Context, req *RequestContext) error

// ResponseInterceptor is called after a successful response and may replace
// it. Returning an error fails the call.
type ResponseInterceptor func(ctx context.Context, req *RequestContext, resp *Response) (*Response, error)

// ErrorInterceptor is called exactly once with the final error of a call.
type ErrorInterceptor func(ctx context.Context, req *RequestContext, err *Error)

// InterceptorChain manages a chain of interceptors. Interceptors must be
// added before the chain is handed to a client.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	errorInterceptors    []ErrorInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
		errorInterceptors:    make([]ErrorInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) *InterceptorChain {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)

	return c
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) *InterceptorChain {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)

	return c
}

// AddErrorInterceptor adds an error interceptor to the chain.
func (c *InterceptorChain) AddErrorInterceptor(interceptor ErrorInterceptor) *InterceptorChain {
	c.errorInterceptors = append(c.errorInterceptors, interceptor)

	return c
}

// Merge appends the interceptors of other to c.
func (c *InterceptorChain) Merge(other *InterceptorChain) *InterceptorChain {
	if other == nil {
		return c
	}

	c.requestInterceptors = append(c.requestInterceptors, other.requestInterceptors...)
	c.responseInterceptors = append(c.responseInterceptors, other.responseInterceptors...)
	c.errorInterceptors = append(c.errorInterceptors, other.errorInterceptors...)

	return c
}

// ExecuteRequestInterceptors runs all request interceptors in order.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *RequestContext) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors threads resp through all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *RequestContext, resp *Response) (*Response, error) {
	if c == nil {
		return resp, nil
	}

	for _, interceptor := range c.responseInterceptors {
		next, err := interceptor(ctx, req, resp)
		if err != nil {
			return nil, fmt.Errorf("response interceptor failed: %w", err)
		}

		if next != nil {
			resp = next
		}
	}

	return resp, nil
}

// ExecuteErrorInterceptors runs all error interceptors.
func (c *InterceptorChain) ExecuteErrorInterceptors(ctx context.Context, req *RequestContext, err *Error) {
	if c == nil {
		return
	}

	for _, interceptor := range c.errorInterceptors {
		interceptor(ctx, req, err)
	}
}

// Common Interceptors

// LoggingInterceptor logs every physical attempt.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *RequestContext) error {
		logger.Debug("API Request", map[string]interface{}{
			"method":     req.Method,
			"path":       req.Path,
			"request_id": req.RequestID,
			"attempt":    req.Attempt,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs successful responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *RequestContext, resp *Response) (*Response, error) {
		logger.Debug("API Response", map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": req.Status,
			"request_id":  req.RequestID,
			"duration_ms": req.Duration.Milliseconds(),
		})

		return resp, nil
	}
}

// LoggingErrorInterceptor logs the final error of a call.
func LoggingErrorInterceptor(logger Logger) ErrorInterceptor {
	return func(ctx context.Context, req *RequestContext, err *Error) {
		logger.Error("API Response Error", map[string]interface{}{
			"method":     req.Method,
			"path":       req.Path,
			"code":       err.Code,
			"status":     err.Status,
			"request_id": err.RequestID,
			"message":    err.Message,
		})
	}
}

// LoggingInterceptors returns a chain with all three logging interceptors.
func LoggingInterceptors(logger Logger) *InterceptorChain {
	return NewInterceptorChain().
		AddRequestInterceptor(LoggingInterceptor(logger)).
		AddResponseInterceptor(LoggingResponseInterceptor(logger)).
		AddErrorInterceptor(LoggingErrorInterceptor(logger))
}

// HeaderInterceptor adds custom headers to every attempt.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *RequestContext) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			if http.CanonicalHeaderKey(key) == http.CanonicalHeaderKey(constants.HeaderRequestID) {
				continue
			}

			req.Headers.Set(key, value)
		}

		return nil
	}
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	Threshold        int           // Number of failures before opening
	Timeout          time.Duration // Time before trying again
	SuccessThreshold int           // Number of successes to close
}

// CircuitBreaker tracks circuit state across calls. It is safe for
// concurrent use.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      *CircuitBreakerConfig
	failures    int
	successes   int
	state       string
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = &CircuitBreakerConfig{
			Threshold:        constants.CircuitBreakerThreshold,
			Timeout:          constants.CircuitBreakerTimeout,
			SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
		}
	}

	return &CircuitBreaker{
		config: config,
		state:  constants.StatusClosed,
		now:    time.Now,
	}
}

// State returns the current state: closed, open or half-open.
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

func (b *CircuitBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != constants.StatusOpen {
		return nil
	}

	if b.now().Sub(b.lastFailure) > b.config.Timeout {
		b.state = constants.StatusHalfOpen
		b.successes = 0

		return nil
	}

	return ErrCircuitBreakerOpen
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	if b.failures >= b.config.Threshold || b.state == constants.StatusHalfOpen {
		b.state = constants.StatusOpen
	}
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case constants.StatusHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = constants.StatusClosed
			b.failures = 0
		}
	case constants.StatusClosed:
		b.failures = 0
	}
}

// CircuitBreakerInterceptors wires breaker into a chain: attempts are refused
// while the circuit is open, server-side failures open it.
func CircuitBreakerInterceptors(breaker *CircuitBreaker) *InterceptorChain {
	return NewInterceptorChain().
		AddRequestInterceptor(func(ctx context.Context, req *RequestContext) error {
			return breaker.allow()
		}).
		AddResponseInterceptor(func(ctx context.Context, req *RequestContext, resp *Response) (*Response, error) {
			breaker.recordSuccess()

			return resp, nil
		}).
		AddErrorInterceptor(func(ctx context.Context, req *RequestContext, err *Error) {
			if err.Code == CodeNetwork || err.Status >= 500 {
				breaker.recordFailure()
			}
		})
}
