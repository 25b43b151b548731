package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
)

// Client sends requests through a lazily built resty engine using the defaults held in its Config.
// The engine and the handler stack are created on first use and reused afterwards.
type Client struct {
	mu           sync.Mutex
	config       *Config
	httpClient   *resty.Client
	handlerStack *HandlerStack
	log          Logger
}

// New builds a Client from config, which may be nil, a map[string]any option map, a Config or a
// *Config. Any other type fails with ErrInvalidConfig.
func New(config any) (*Client, error) {
	cfg, err := normalizeConfig(config)
	if err != nil {
		return nil, err
	}
	return &Client{config: cfg, log: noopLogger{}}, nil
}

func normalizeConfig(config any) (*Config, error) {
	switch c := config.(type) {
	case nil:
		return defaultConfig(), nil
	case *Config:
		if c == nil {
			return defaultConfig(), nil
		}
		return c, nil
	case Config:
		return c.clone(), nil
	case map[string]any:
		return NewConfig(c)
	default:
		return nil, fmt.Errorf("%w, got %T", ErrInvalidConfig, config)
	}
}

// Get sends a GET request with query parameters.
func (c *Client) Get(ctx context.Context, url string, query map[string]string) (*Result, error) {
	return c.Request(ctx, url, http.MethodGet, RequestOptions{Query: query}, false)
}

// Post sends a form-encoded POST request.
func (c *Client) Post(ctx context.Context, url string, form map[string]string) (*Result, error) {
	return c.Request(ctx, url, http.MethodPost, RequestOptions{FormParams: form}, false)
}

// PostJSON sends data encoded as JSON. A nil data is sent as an empty object, a string as a JSON string.
func (c *Client) PostJSON(ctx context.Context, url string, data any, query map[string]string) (*Result, error) {
	if data == nil {
		data = map[string]any{}
	}
	return c.Request(ctx, url, http.MethodPost, RequestOptions{Query: query, JSON: data}, false)
}

// Upload sends a multipart POST. files maps field names to file paths and form holds plain fields.
// File parts are written first, then plain fields, each group in field name order.
func (c *Client) Upload(ctx context.Context, url string, files, form, query map[string]string) (*Result, error) {
	parts := make([]MultipartPart, 0, len(files)+len(form))
	for _, name := range sortedKeys(files) {
		parts = append(parts, MultipartPart{Name: name, FilePath: files[name]})
	}
	for _, name := range sortedKeys(form) {
		parts = append(parts, MultipartPart{Name: name, Contents: form[name]})
	}
	return c.Request(ctx, url, http.MethodPost, RequestOptions{Query: query, Multipart: parts}, false)
}

// Request sends uri with method and casts the response per the configured response type, or returns it
// untouched as a raw Result when returnRaw is set.
//
// When the body cannot be decoded the Result is still returned, holding the empty shape for its type,
// together with an error wrapping ErrDecode.
func (c *Client) Request(ctx context.Context, uri, method string, opts RequestOptions, returnRaw bool) (*Result, error) {
	resp, err := c.PerformRequest(ctx, uri, method, opts)
	if err != nil {
		return nil, err
	}
	if returnRaw {
		return &Result{Type: ResponseTypeRaw, Raw: resp}, nil
	}
	return castResponseToType(resp, c.Config().ResponseType())
}

// RequestRaw sends uri with method and returns the response whatever the configured response type.
func (c *Client) RequestRaw(ctx context.Context, uri, method string, opts RequestOptions) (*Response, error) {
	result, err := c.Request(ctx, uri, method, opts, true)
	if err != nil {
		return nil, err
	}
	return result.Raw, nil
}

// PerformRequest resolves uri against the base URI, hands the request to the engine and snapshots the
// response. With http_errors enabled (the default) a 4xx/5xx response fails with *StatusError.
func (c *Client) PerformRequest(ctx context.Context, uri, method string, opts RequestOptions) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := c.Config()

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := resolveURI(cfg, uri, opts.BaseURI)
	if err != nil {
		return nil, err
	}

	req := c.HTTPClient().R().SetContext(ctx)
	if err := opts.apply(req); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	out := BuildFromResty(resp)
	if cfg.flag(OptionHTTPErrors, true) && out.StatusCode() >= http.StatusBadRequest {
		return nil, &StatusError{Method: method, URL: target, Response: out}
	}
	return out, nil
}

// resolveURI joins uri onto the base URI with RFC 3986 reference resolution. With auto-trim enabled a
// single leading slash is dropped first so the base URI's path is kept.
func resolveURI(cfg *Config, uri, override string) (string, error) {
	base := strings.TrimSpace(override)
	if base == "" {
		base = cfg.BaseURI()
	}
	if base == "" {
		return uri, nil
	}
	if cfg.NeedAutoTrimEndpointSlash() {
		uri = strings.TrimPrefix(uri, "/")
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base uri %q: %w", base, err)
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse request uri %q: %w", uri, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func castResponseToType(resp *Response, typ ResponseType) (*Result, error) {
	switch typ {
	case ResponseTypeUnset, ResponseTypeArray:
		arr, err := resp.ToArray()
		return &Result{Type: ResponseTypeArray, Array: arr}, err
	case ResponseTypeObject:
		obj, err := resp.ToObject()
		return &Result{Type: ResponseTypeObject, Object: obj}, err
	case ResponseTypeCollection:
		col, err := resp.ToCollection()
		return &Result{Type: ResponseTypeCollection, Collection: col}, err
	case ResponseTypeRaw:
		return &Result{Type: ResponseTypeRaw, Raw: resp}, nil
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownResponseType, int(typ))
	}
}

// HandlerStack returns the client's middleware chain, creating the default stack on first call.
func (c *Client) HandlerStack() *HandlerStack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlerStackLocked()
}

func (c *Client) handlerStackLocked() *HandlerStack {
	if c.handlerStack == nil {
		c.handlerStack = CreateHandlerStack(c.log)
	}
	return c.handlerStack
}

// HTTPClient returns the engine, building it from the current Config on first call.
func (c *Client) HTTPClient() *resty.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		rc := newRestyClient(c.config, c.log)
		c.handlerStackLocked().install(rc)
		c.httpClient = rc
	}
	return c.httpClient
}

// SetHTTPClient replaces the engine. The client's handler stack is installed on rc.
func (c *Client) SetHTTPClient(rc *resty.Client) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rc != nil {
		c.handlerStackLocked().install(rc)
	}
	c.httpClient = rc
	return c
}

func (c *Client) Config() *Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetConfig swaps the Config. An engine that was already built keeps its transport settings.
func (c *Client) SetConfig(cfg *Config) *Client {
	if cfg == nil {
		return c
	}
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
	return c
}

// SetLogger sets the logger used by engines and handler stacks built after the call.
func (c *Client) SetLogger(log Logger) *Client {
	c.mu.Lock()
	c.log = ensureLogger(log)
	c.mu.Unlock()
	return c
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
