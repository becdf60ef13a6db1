package blocks_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, "DEBUG "+msg)
}

func (l *recordingLogger) Info(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, "INFO "+msg)
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, "WARN "+msg)
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, "ERROR "+msg)
}

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := blocks.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *blocks.RequestContext) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *blocks.RequestContext) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(ctx, &blocks.RequestContext{Method: "GET", Path: "/users"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_RequestInterceptorError(t *testing.T) {
	t.Parallel()

	denied := errors.New("denied")
	called := false

	chain := blocks.NewInterceptorChain().
		AddRequestInterceptor(func(ctx context.Context, req *blocks.RequestContext) error {
			return denied
		}).
		AddRequestInterceptor(func(ctx context.Context, req *blocks.RequestContext) error {
			called = true

			return nil
		})

	err := chain.ExecuteRequestInterceptors(context.Background(), &blocks.RequestContext{})
	require.ErrorIs(t, err, denied)
	assert.False(t, called)
}

func TestInterceptorChain_ResponseInterceptorsReplaceResponse(t *testing.T) {
	t.Parallel()

	chain := blocks.NewInterceptorChain().
		AddResponseInterceptor(func(ctx context.Context, req *blocks.RequestContext, resp *blocks.Response) (*blocks.Response, error) {
			return &blocks.Response{StatusCode: resp.StatusCode, Body: []byte(`{"replaced":true}`)}, nil
		}).
		AddResponseInterceptor(func(ctx context.Context, req *blocks.RequestContext, resp *blocks.Response) (*blocks.Response, error) {
			assert.JSONEq(t, `{"replaced":true}`, string(resp.Body))

			return nil, nil
		})

	resp, err := chain.ExecuteResponseInterceptors(context.Background(), &blocks.RequestContext{}, &blocks.Response{StatusCode: 200})
	require.NoError(t, err)
	assert.JSONEq(t, `{"replaced":true}`, string(resp.Body))
}

func TestInterceptorChain_NilChain(t *testing.T) {
	t.Parallel()

	var chain *blocks.InterceptorChain

	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), &blocks.RequestContext{}))

	resp := &blocks.Response{StatusCode: 204}
	got, err := chain.ExecuteResponseInterceptors(context.Background(), &blocks.RequestContext{}, resp)
	require.NoError(t, err)
	assert.Same(t, resp, got)

	chain.ExecuteErrorInterceptors(context.Background(), &blocks.RequestContext{}, &blocks.Error{})
}

func TestInterceptorChain_Merge(t *testing.T) {
	t.Parallel()

	var seen []string

	first := blocks.NewInterceptorChain().AddErrorInterceptor(func(ctx context.Context, req *blocks.RequestContext, err *blocks.Error) {
		seen = append(seen, "first")
	})
	second := blocks.NewInterceptorChain().AddErrorInterceptor(func(ctx context.Context, req *blocks.RequestContext, err *blocks.Error) {
		seen = append(seen, "second")
	})

	first.Merge(second).Merge(nil)
	first.ExecuteErrorInterceptors(context.Background(), &blocks.RequestContext{}, &blocks.Error{})

	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	chain := blocks.LoggingInterceptors(logger)
	ctx := context.Background()
	req := &blocks.RequestContext{Method: "GET", Path: "/users", RequestID: "r1", Attempt: 1}

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	_, err := chain.ExecuteResponseInterceptors(ctx, req, &blocks.Response{StatusCode: 200})
	require.NoError(t, err)
	chain.ExecuteErrorInterceptors(ctx, req, blocks.NewError(500, "", "boom"))

	assert.Equal(t, []string{"DEBUG API Request", "DEBUG API Response", "ERROR API Response Error"}, logger.messages)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := blocks.HeaderInterceptor(map[string]string{
		"X-Tenant":     "acme",
		"x-request-id": "forged",
	})

	req := &blocks.RequestContext{Headers: http.Header{"X-Request-Id": []string{"real"}}}
	require.NoError(t, interceptor(context.Background(), req))

	assert.Equal(t, "acme", req.Headers.Get("X-Tenant"))
	assert.Equal(t, "real", req.Headers.Get("X-Request-ID"))
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	breaker := blocks.NewCircuitBreaker(&blocks.CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          20 * time.Millisecond,
		SuccessThreshold: 1,
	})
	chain := blocks.CircuitBreakerInterceptors(breaker)
	ctx := context.Background()
	req := &blocks.RequestContext{Method: "GET", Path: "/users"}

	assert.Equal(t, "closed", breaker.State())

	// Client errors never trip the breaker.
	chain.ExecuteErrorInterceptors(ctx, req, blocks.NewError(404, "", ""))
	chain.ExecuteErrorInterceptors(ctx, req, blocks.NewError(404, "", ""))
	assert.Equal(t, "closed", breaker.State())

	chain.ExecuteErrorInterceptors(ctx, req, blocks.NewError(503, "", ""))
	chain.ExecuteErrorInterceptors(ctx, req, &blocks.Error{Code: blocks.CodeNetwork})
	assert.Equal(t, "open", breaker.State())

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.ErrorIs(t, err, blocks.ErrCircuitBreakerOpen)

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	assert.Equal(t, "half-open", breaker.State())

	_, err = chain.ExecuteResponseInterceptors(ctx, req, &blocks.Response{StatusCode: 200})
	require.NoError(t, err)
	assert.Equal(t, "closed", breaker.State())
}
