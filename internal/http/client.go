// Package http implements the blocks transport: header resolution, retries
// with jittered back-off, interceptors and error normalization for every call.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/internal/retry"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Client executes calls against one block. Its configuration is immutable
// after construction and it is safe for concurrent use.
type Client struct {
	baseURL        string
	transport      http.RoundTripper
	logger         blocks.Logger
	debug          bool
	userAgent      string
	retry          *blocks.RetryConfig
	timeout        time.Duration
	staticHeaders  blocks.HeaderProvider
	headerProvider blocks.HeaderProvider
	interceptors   *blocks.InterceptorChain
	newRequestID   func() string
}

// Request describes one logical call.
type Request struct {
	Method  string
	Path    string
	Params  blocks.Params
	Body    interface{}
	Headers map[string]string
	// Timeout overrides the client's per-attempt timeout when positive.
	Timeout time.Duration
}

// NewClient creates a new transport for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		transport:    cleanhttp.DefaultPooledTransport(),
		userAgent:    constants.DefaultUserAgent,
		retry:        blocks.DefaultRetryConfig(),
		timeout:      constants.DefaultHTTPTimeout,
		newRequestID: newRequestID,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

var _ blocks.Transport = (*Client)(nil)

// BaseURL returns the base URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequestID returns a UUIDv7, so ids issued by one process sort in
// creation order.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// Do executes req, retrying transient failures. Every returned error is a
// *blocks.Error.
func (c *Client) Do(ctx context.Context, req *Request) (*blocks.Response, error) {
	call := &call{
		client: c,
		req:    req,
		start:  time.Now(),
	}

	resp, err := call.run(ctx)
	if err != nil {
		apiErr := call.fail(ctx, err)
		c.interceptors.ExecuteErrorInterceptors(ctx, call.current, apiErr)

		return nil, apiErr
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *blocks.RequestOptions) (*blocks.Response, error) {
	return c.Do(ctx, newRequest(http.MethodGet, path, nil, opts))
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}, opts *blocks.RequestOptions) (*blocks.Response, error) {
	return c.Do(ctx, newRequest(http.MethodPost, path, body, opts))
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}, opts *blocks.RequestOptions) (*blocks.Response, error) {
	return c.Do(ctx, newRequest(http.MethodPut, path, body, opts))
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}, opts *blocks.RequestOptions) (*blocks.Response, error) {
	return c.Do(ctx, newRequest(http.MethodPatch, path, body, opts))
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *blocks.RequestOptions) (*blocks.Response, error) {
	return c.Do(ctx, newRequest(http.MethodDelete, path, nil, opts))
}

func newRequest(method, path string, body interface{}, opts *blocks.RequestOptions) *Request {
	req := &Request{
		Method: method,
		Path:   path,
		Body:   body,
	}

	if opts != nil {
		req.Params = opts.Params
		req.Headers = opts.Headers
		req.Timeout = opts.Timeout
	}

	return req
}

// call holds the state of one logical call across its attempts. Attempts run
// sequentially, so no locking is needed.
type call struct {
	client       *Client
	req          *Request
	url          string
	body         []byte
	start        time.Time
	attempt      int
	attemptStart time.Time
	current      *blocks.RequestContext
}

func (cl *call) run(ctx context.Context) (*blocks.Response, error) {
	body, err := encodeBody(cl.req.Body)
	if err != nil {
		return nil, &abortError{err: err}
	}

	cl.body = body

	target, err := cl.client.buildURL(cl.req.Path, cl.req.Params)
	if err != nil {
		return nil, &abortError{err: err}
	}

	cl.url = target

	header, err := cl.prepare(ctx)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, cl.req.Method, cl.url, rawBody)
	if err != nil {
		return nil, &abortError{err: fmt.Errorf("creating request: %w", err)}
	}

	httpReq.Header = header

	resp, err := cl.retryClient().Do(httpReq)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, err
	}

	return cl.handleResponse(ctx, resp)
}

func (cl *call) retryClient() *retryablehttp.Client {
	c := cl.client

	timeout := c.timeout
	if cl.req.Timeout > 0 {
		timeout = cl.req.Timeout
	}

	client := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport: c.transport,
			Timeout:   timeout,
		},
		RetryWaitMin: c.retry.InitialDelay,
		RetryWaitMax: c.retry.MaxDelay,
		RetryMax:     c.retry.MaxRetries,
		CheckRetry:   cl.checkRetry,
		Backoff:      cl.backoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		PrepareRetry: cl.prepareRetry,
	}

	if c.logger != nil {
		client.Logger = &leveledLogger{logger: c.logger, debug: c.debug}
	}

	return client
}

// prepare starts a physical attempt: fresh request id, freshly resolved
// headers, request interceptors.
func (cl *call) prepare(ctx context.Context) (http.Header, error) {
	c := cl.client
	cl.attempt++
	requestID := c.newRequestID()

	header, err := c.resolveHeaders(ctx, cl.req.Headers, requestID)

	cl.current = &blocks.RequestContext{
		Method:    cl.req.Method,
		Path:      cl.req.Path,
		URL:       cl.url,
		Body:      cl.body,
		Headers:   header,
		RequestID: requestID,
		Attempt:   cl.attempt,
	}

	if err != nil {
		return nil, &abortError{err: err}
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, cl.current)
	if err != nil {
		return nil, &abortError{err: err}
	}

	if cl.current.Headers == nil {
		cl.current.Headers = make(http.Header)
	}

	cl.current.Headers.Set(constants.HeaderRequestID, requestID)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     cl.req.Method,
			"url":        cl.url,
			"request_id": requestID,
			"attempt":    cl.attempt,
		})
	}

	cl.attemptStart = time.Now()

	return cl.current.Headers, nil
}

func (cl *call) prepareRetry(req *http.Request) error {
	header, err := cl.prepare(req.Context())
	if err != nil {
		return err
	}

	req.Header = header

	return nil
}

func (cl *call) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	cl.current.Duration = time.Since(cl.attemptStart)

	var failure *blocks.Error

	switch {
	case err != nil:
		failure = classifyTransportError(ctx, err)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		cl.current.Status = resp.StatusCode
		cl.logResponse(resp.StatusCode)

		return false, nil
	default:
		cl.current.Status = resp.StatusCode
		cl.logResponse(resp.StatusCode)
		failure = blocks.NewError(resp.StatusCode, "", "")
	}

	return retry.ShouldRetry(failure, cl.client.retry), nil
}

func (cl *call) backoff(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
	return retry.ComputeDelay(attemptNum, cl.client.retry)
}

func (cl *call) logResponse(status int) {
	c := cl.client
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"status_code": status,
		"request_id":  cl.current.RequestID,
		"attempt":     cl.attempt,
		"duration_ms": cl.current.Duration.Milliseconds(),
	})
}

func (cl *call) handleResponse(ctx context.Context, resp *http.Response) (*blocks.Response, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	cl.current.Status = resp.StatusCode
	cl.current.Duration = time.Since(cl.attemptStart)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	result := &blocks.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RequestID:  cl.current.RequestID,
	}

	if isJSON(resp.Header.Get(constants.HeaderContentType)) && len(bytes.TrimSpace(body)) > 0 {
		if !json.Valid(body) {
			apiErr := blocks.NewError(resp.StatusCode, blocks.CodeInternal, "invalid JSON in response body")
			apiErr.Err = blocks.ErrInvalidJSON

			return nil, apiErr
		}

		result.Body = body
	}

	result, err = cl.client.interceptors.ExecuteResponseInterceptors(ctx, cl.current, result)
	if err != nil {
		var apiErr *blocks.Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}

		return nil, &blocks.Error{
			Code:    blocks.CodeInternal,
			Status:  resp.StatusCode,
			Message: err.Error(),
			Err:     err,
		}
	}

	return result, nil
}

// fail turns any error of the call into the final *blocks.Error.
func (cl *call) fail(ctx context.Context, err error) *blocks.Error {
	var apiErr *blocks.Error

	var aborted *abortError

	switch {
	case errors.As(err, &aborted):
		apiErr = &blocks.Error{
			Code:    blocks.CodeRequestAborted,
			Message: aborted.Error(),
			Err:     aborted.err,
		}
	case errors.As(err, &apiErr):
	default:
		apiErr = classifyTransportError(ctx, err)
	}

	if cl.current == nil {
		cl.current = &blocks.RequestContext{
			Method:    cl.req.Method,
			Path:      cl.req.Path,
			URL:       cl.url,
			RequestID: cl.client.newRequestID(),
			Attempt:   cl.attempt,
		}
	}

	if apiErr.RequestID == "" {
		apiErr.RequestID = cl.current.RequestID
	}

	apiErr.Duration = time.Since(cl.start)
	cl.current.Status = apiErr.Status

	if cl.current.Duration == 0 {
		cl.current.Duration = apiErr.Duration
	}

	return apiErr
}

func encodeBody(body interface{}) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return data, nil
	}
}

// isJSON reports whether contentType is application/json or a +json type
// such as application/vnd.api+json.
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == constants.MediaTypeJSON || strings.HasSuffix(mediaType, "+json")
}
