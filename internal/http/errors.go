package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/spf13/cast"
)

// abortError marks a failure raised before any network I/O of an attempt.
type abortError struct {
	err error
}

func (e *abortError) Error() string {
	return "request aborted: " + e.err.Error()
}

func (e *abortError) Unwrap() error {
	return e.err
}

// parseErrorResponse normalizes a non-2xx response body. Recognized shapes:
//
//	{"errors": [{"code": "...", "detail": "...", "title": "...", "source": {"pointer": "..."}}]}
//	{"success": false, "errors": ["...", "..."]}
//	{"error": "...", "message": "...", "code": "..."}
//
// Anything else yields a generic error built from the status.
func parseErrorResponse(status int, body []byte) *blocks.Error {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = "Unknown Status"
	}

	fallback := blocks.NewError(status, "", fmt.Sprintf("%d %s", status, statusText))

	var payload map[string]interface{}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil || payload == nil {
		return fallback
	}

	if rawErrors, ok := payload["errors"].([]interface{}); ok && len(rawErrors) > 0 {
		if apiErr := fromErrorObjects(status, statusText, rawErrors); apiErr != nil {
			return apiErr
		}

		if apiErr := fromErrorStrings(status, rawErrors); apiErr != nil {
			return apiErr
		}
	}

	code := cast.ToString(payload["code"])
	message := cast.ToString(payload["message"])
	errorText := cast.ToString(payload["error"])

	if message == "" {
		message = errorText
	}

	if message == "" && code == "" {
		return fallback
	}

	if message == "" {
		message = statusText
	}

	return blocks.NewError(status, code, message)
}

func fromErrorObjects(status int, statusText string, rawErrors []interface{}) *blocks.Error {
	first, ok := rawErrors[0].(map[string]interface{})
	if !ok {
		return nil
	}

	message := cast.ToString(first["detail"])
	if message == "" {
		message = cast.ToString(first["title"])
	}

	if message == "" {
		message = statusText
	}

	apiErr := blocks.NewError(status, cast.ToString(first["code"]), message)
	apiErr.Meta = map[string]interface{}{"errors": rawErrors}

	if source, ok := first["source"].(map[string]interface{}); ok {
		apiErr.Source = cast.ToString(source["pointer"])
		if apiErr.Source == "" {
			apiErr.Source = cast.ToString(source["parameter"])
		}
	}

	return apiErr
}

func fromErrorStrings(status int, rawErrors []interface{}) *blocks.Error {
	messages := make([]string, 0, len(rawErrors))

	for _, raw := range rawErrors {
		message, ok := raw.(string)
		if !ok {
			return nil
		}

		messages = append(messages, message)
	}

	apiErr := blocks.NewError(status, "", strings.Join(messages, "; "))
	apiErr.Meta = map[string]interface{}{"errors": rawErrors}

	return apiErr
}

// classifyTransportError maps a failure with no usable response. Deadlines and
// cancellations become timeout/408, everything else network_error/0.
func classifyTransportError(ctx context.Context, err error) *blocks.Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		message := "request timed out"
		if errors.Is(ctxErr, context.Canceled) {
			message = "request cancelled"
		}

		cause := err
		if !errors.Is(err, ctxErr) {
			cause = errors.Join(ctxErr, err)
		}

		return &blocks.Error{
			Code:    blocks.CodeTimeout,
			Status:  blocks.StatusClientTimeout,
			Message: message,
			Err:     cause,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &blocks.Error{
			Code:    blocks.CodeTimeout,
			Status:  blocks.StatusClientTimeout,
			Message: "request timed out",
			Err:     err,
		}
	}

	return &blocks.Error{
		Code:    blocks.CodeNetwork,
		Status:  0,
		Message: err.Error(),
		Err:     err,
	}
}
