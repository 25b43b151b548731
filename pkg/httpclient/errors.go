package httpclient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned by New when the config argument is neither an option map nor a Config.
	ErrInvalidConfig = errors.New("httpclient: config must be an option map or *httpclient.Config")

	// ErrDecode marks a response body that could not be decoded as JSON.
	ErrDecode = errors.New("httpclient: decode response body")

	// ErrUnknownResponseType is returned when a response is cast to a type outside the known set.
	ErrUnknownResponseType = errors.New("httpclient: unknown response type")
)

const maxErrorBodySnippet = 512

// StatusError reports a response with a 4xx/5xx status while http_errors is enabled.
type StatusError struct {
	Method   string
	URL      string
	Response *Response
}

func (e *StatusError) Error() string {
	if e.Response == nil {
		return fmt.Sprintf("%s %s: http response error", e.Method, e.URL)
	}
	return fmt.Sprintf("%s %s: http response status %d: %s",
		e.Method, e.URL, e.Response.StatusCode(), bodySnippet(e.Response.Body()))
}

// StatusCode returns the status carried by the failed response.
func (e *StatusError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode()
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return "<empty>"
	}
	if len(body) > maxErrorBodySnippet {
		body = body[:maxErrorBodySnippet]
	}
	return strings.TrimSpace(string(body))
}
