package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Response is an immutable snapshot of an HTTP response. Decoders re-parse the stored body on every call.
type Response struct {
	statusCode int
	header     http.Header
	body       []byte
	proto      string
	reason     string
}

// NewResponse copies the given parts into a Response. An empty reason is derived from the status code.
func NewResponse(statusCode int, header http.Header, body []byte, proto, reason string) *Response {
	if reason == "" {
		reason = http.StatusText(statusCode)
	}
	if proto == "" {
		proto = "HTTP/1.1"
	}
	return &Response{
		statusCode: statusCode,
		header:     header.Clone(),
		body:       bytes.Clone(body),
		proto:      proto,
		reason:     reason,
	}
}

// BuildFromResty snapshots an engine response.
func BuildFromResty(resp *resty.Response) *Response {
	if resp == nil {
		return nil
	}
	var proto string
	if resp.RawResponse != nil {
		proto = resp.RawResponse.Proto
	}
	return NewResponse(resp.StatusCode(), resp.Header(), resp.Body(), proto, reasonPhrase(resp.Status(), resp.StatusCode()))
}

// reasonPhrase strips the leading code from a status line such as "404 Not Found".
func reasonPhrase(status string, code int) string {
	prefix := strconv.Itoa(code)
	if rest, ok := strings.CutPrefix(status, prefix); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(status)
}

func (r *Response) StatusCode() int { return r.statusCode }

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header { return r.header.Clone() }

func (r *Response) Proto() string { return r.proto }

func (r *Response) ReasonPhrase() string { return r.reason }

// Body returns a copy of the body bytes.
func (r *Response) Body() []byte { return bytes.Clone(r.body) }

// Reader returns a fresh reader positioned at the start of the body.
func (r *Response) Reader() io.Reader { return bytes.NewReader(r.body) }

// BodyContents returns the full body as text. It may be called any number of times.
func (r *Response) BodyContents() string { return string(r.body) }

func (r *Response) String() string { return r.BodyContents() }

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool { return r.statusCode >= 200 && r.statusCode < 300 }

// decode parses the body keeping integer precision: integers that fit in int64 come back as int64,
// other numbers as float64.
func (r *Response) decode() (any, error) {
	dec := json.NewDecoder(bytes.NewReader(r.body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after json value", ErrDecode)
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	default:
		return v
	}
}

// ToArray decodes the body into a mapping. Objects map directly, lists are keyed by index ("0", "1", ...),
// a scalar is stored under "0" and null yields an empty mapping. On malformed JSON the result is an empty
// mapping together with an error wrapping ErrDecode.
func (r *Response) ToArray() (map[string]any, error) {
	v, err := r.decode()
	if err != nil {
		return map[string]any{}, err
	}
	return toMapping(v), nil
}

func toMapping(v any) map[string]any {
	switch t := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return t
	case []any:
		out := make(map[string]any, len(t))
		for i, item := range t {
			out[strconv.Itoa(i)] = item
		}
		return out
	default:
		return map[string]any{"0": t}
	}
}

// ToObject decodes the body into a generic value. On malformed JSON it returns nil and an error
// wrapping ErrDecode.
func (r *Response) ToObject() (any, error) {
	return r.decode()
}

// ToJSON re-serialises the decoded body. A malformed body serialises as "[]", the encoding of an empty
// array, alongside the decode error.
func (r *Response) ToJSON() (string, error) {
	v, err := r.decode()
	if err != nil {
		return "[]", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "[]", fmt.Errorf("encode response json: %w", err)
	}
	return string(out), nil
}

// ToCollection wraps the body for path queries.
func (r *Response) ToCollection() (*Collection, error) {
	return NewCollection(r.body)
}

// ToDocument parses the body as HTML.
func (r *Response) ToDocument() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r.Reader())
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
