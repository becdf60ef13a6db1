package http

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/spf13/cast"
)

var requestIDHeader = http.CanonicalHeaderKey(constants.HeaderRequestID)

// resolveHeaders layers defaults, static headers, dynamic headers and
// per-call headers, in increasing priority. The request id always wins.
func (c *Client) resolveHeaders(ctx context.Context, perCall map[string]string, requestID string) (http.Header, error) {
	header := make(http.Header)
	header.Set(constants.HeaderContentType, constants.MediaTypeJSON)
	header.Set(constants.HeaderAccept, constants.MediaTypeJSON)
	header.Set(constants.HeaderUserAgent, c.userAgent)

	apply := func(values map[string]string) {
		for key, value := range values {
			if http.CanonicalHeaderKey(key) == requestIDHeader {
				continue
			}

			header.Set(key, value)
		}
	}

	if c.staticHeaders != nil {
		static, err := c.staticHeaders.Headers(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving static headers: %w", err)
		}

		apply(static)
	}

	if c.headerProvider != nil {
		dynamic, err := c.headerProvider.Headers(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving dynamic headers: %w", err)
		}

		apply(dynamic)
	}

	apply(perCall)
	header.Set(constants.HeaderRequestID, requestID)

	return header, nil
}

// buildURL joins the base URL, path and encoded query.
func (c *Client) buildURL(path string, params blocks.Params) (string, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")

	if query := encodeQuery(params); query != "" {
		if strings.Contains(target, "?") {
			target += "&" + query
		} else {
			target += "?" + query
		}
	}

	if _, err := url.Parse(target); err != nil {
		return "", fmt.Errorf("invalid request URL: %w", err)
	}

	return target, nil
}

// bracketUnescaper keeps the brackets of "key[]" and "filter[name]" literal.
var bracketUnescaper = strings.NewReplacer("%5B", "[", "%5D", "]")

// encodeQuery encodes params with sorted keys. Slices become repeated
// "key[]" pairs; nil values are omitted.
func encodeQuery(params blocks.Params) string {
	if len(params) == 0 {
		return ""
	}

	values := url.Values{}

	for key, value := range params {
		if isNil(value) {
			continue
		}

		rv := reflect.ValueOf(value)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := range rv.Len() {
				elem := rv.Index(i).Interface()
				if isNil(elem) {
					continue
				}

				values.Add(key+"[]", formatValue(elem))
			}

			continue
		}

		values.Set(key, formatValue(value))
	}

	var builder strings.Builder

	for _, key := range slices.Sorted(maps.Keys(values)) {
		escapedKey := bracketUnescaper.Replace(url.QueryEscape(key))

		for _, value := range values[key] {
			if builder.Len() > 0 {
				builder.WriteByte('&')
			}

			builder.WriteString(escapedKey)
			builder.WriteByte('=')
			builder.WriteString(url.QueryEscape(value))
		}
	}

	return builder.String()
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case *time.Time:
		return v.Format(time.RFC3339)
	case []byte:
		return string(v)
	default:
		return cast.ToString(v)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
