package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultEventSubject is the NATS subject request events are published on.
const DefaultEventSubject = "blocks.requests"

// EventPublisher publishes raw messages. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

var _ EventPublisher = (*nats.Conn)(nil)

// RequestEvent is the message published for every finished call.
type RequestEvent struct {
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	RequestID  string    `json:"request_id"`
	Attempt    int       `json:"attempt"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventInterceptors publishes a RequestEvent to subject after every call,
// successful or not. Publish failures are reported to logger, if any, and never
// fail the call.
func EventInterceptors(publisher EventPublisher, subject string, logger Logger) *InterceptorChain {
	if subject == "" {
		subject = DefaultEventSubject
	}

	publish := func(event RequestEvent) {
		data, err := json.Marshal(event)
		if err == nil {
			err = publisher.Publish(subject, data)
		}

		if err != nil && logger != nil {
			logger.Warn("Failed to publish request event", map[string]interface{}{
				"subject":    subject,
				"request_id": event.RequestID,
				"error":      err.Error(),
			})
		}
	}

	return NewInterceptorChain().
		AddResponseInterceptor(func(ctx context.Context, req *RequestContext, resp *Response) (*Response, error) {
			publish(RequestEvent{
				Method:     req.Method,
				Path:       req.Path,
				RequestID:  req.RequestID,
				Attempt:    req.Attempt,
				Status:     req.Status,
				DurationMS: req.Duration.Milliseconds(),
				Timestamp:  time.Now().UTC(),
			})

			return resp, nil
		}).
		AddErrorInterceptor(func(ctx context.Context, req *RequestContext, err *Error) {
			publish(RequestEvent{
				Method:     req.Method,
				Path:       req.Path,
				RequestID:  err.RequestID,
				Attempt:    req.Attempt,
				Status:     err.Status,
				DurationMS: err.Duration.Milliseconds(),
				Code:       err.Code,
				Message:    err.Message,
				Timestamp:  time.Now().UTC(),
			})
		})
}

// ConnectEvents connects to a NATS server for request event publishing.
func ConnectEvents(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return conn, nil
}
