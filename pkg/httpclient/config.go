package httpclient

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Option keys understood by Config. Keys outside this set are kept verbatim as pass-through options.
const (
	OptionBaseURI        = "base_uri"
	OptionTimeout        = "timeout"
	OptionConnectTimeout = "connect_timeout"
	OptionProxy          = "proxy"
	OptionResponseType   = "response_type"

	// Pass-through keys read by the transport.
	OptionHeaders        = "headers"
	OptionVerify         = "verify"
	OptionAllowRedirects = "allow_redirects"
	OptionHTTPErrors     = "http_errors"
	OptionDebug          = "debug"
)

const (
	DefaultTimeout        = 3000 * time.Millisecond
	DefaultConnectTimeout = 3000 * time.Millisecond

	defaultMaxRedirects = 5
)

// Config holds request defaults for a Client. Timeouts given through option maps are integer
// milliseconds; duration strings such as "1.5s" are accepted too.
//
// Config is not safe for concurrent mutation.
type Config struct {
	baseURI        string
	timeout        time.Duration
	connectTimeout time.Duration
	proxy          map[string]string
	responseType   ResponseType
	extra          map[string]any

	autoTrimEndpointSlash bool
}

// NewConfig returns a Config with defaults overlaid by options.
func NewConfig(options map[string]any) (*Config, error) {
	cfg := defaultConfig()
	if err := cfg.MergeOptions(options); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		timeout:               DefaultTimeout,
		connectTimeout:        DefaultConnectTimeout,
		proxy:                 map[string]string{},
		extra:                 map[string]any{},
		autoTrimEndpointSlash: true,
	}
}

func (c *Config) clone() *Config {
	cp := *c
	cp.proxy = maps.Clone(c.proxy)
	cp.extra = maps.Clone(c.extra)
	if cp.proxy == nil {
		cp.proxy = map[string]string{}
	}
	if cp.extra == nil {
		cp.extra = map[string]any{}
	}
	return &cp
}

func (c *Config) BaseURI() string { return c.baseURI }

func (c *Config) SetBaseURI(baseURI string) *Config {
	c.baseURI = strings.TrimSpace(baseURI)
	return c
}

// Timeout returns the total request timeout, falling back to DefaultTimeout when unset.
func (c *Config) Timeout() time.Duration {
	if c.timeout <= 0 {
		return DefaultTimeout
	}
	return c.timeout
}

func (c *Config) SetTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

// ConnectTimeout returns the dial timeout, falling back to DefaultConnectTimeout when unset.
func (c *Config) ConnectTimeout() time.Duration {
	if c.connectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.connectTimeout
}

func (c *Config) SetConnectTimeout(timeout time.Duration) *Config {
	c.connectTimeout = timeout
	return c
}

// Proxy returns a copy of the scheme to proxy URL map. The "no" key holds a comma separated list of
// hosts that bypass the proxy.
func (c *Config) Proxy() map[string]string {
	out := maps.Clone(c.proxy)
	if out == nil {
		out = map[string]string{}
	}
	return out
}

func (c *Config) SetProxy(proxy map[string]string) *Config {
	c.proxy = maps.Clone(proxy)
	if c.proxy == nil {
		c.proxy = map[string]string{}
	}
	return c
}

func (c *Config) ResponseType() ResponseType { return c.responseType }

func (c *Config) SetResponseType(typ ResponseType) *Config {
	c.responseType = typ
	return c
}

// Option returns the value stored under key, or def when the key is unknown or unset.
// Timeouts are reported in milliseconds.
func (c *Config) Option(key string, def any) any {
	switch key {
	case OptionBaseURI:
		if c.baseURI == "" {
			return def
		}
		return c.baseURI
	case OptionTimeout:
		return c.Timeout().Milliseconds()
	case OptionConnectTimeout:
		return c.ConnectTimeout().Milliseconds()
	case OptionProxy:
		return c.Proxy()
	case OptionResponseType:
		if c.responseType == ResponseTypeUnset {
			return def
		}
		return c.responseType.String()
	}

	if v, ok := c.extra[key]; ok && v != nil {
		return v
	}
	return def
}

// SetOption stores value under key. Known keys are coerced to their typed field and fail when the
// value does not fit; other keys are kept as pass-through options.
func (c *Config) SetOption(key string, value any) error {
	switch key {
	case OptionBaseURI:
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		c.baseURI = strings.TrimSpace(s)
	case OptionTimeout:
		d, err := toDuration(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		c.timeout = d
	case OptionConnectTimeout:
		d, err := toDuration(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		c.connectTimeout = d
	case OptionProxy:
		p, err := toProxy(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		c.proxy = p
	case OptionResponseType:
		typ, err := toResponseType(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		c.responseType = typ
	default:
		if c.extra == nil {
			c.extra = map[string]any{}
		}
		c.extra[key] = value
	}
	return nil
}

// MergeOptions applies options over the current values. Either every option is applied or, on error,
// none are.
func (c *Config) MergeOptions(options map[string]any) error {
	next := c.clone()
	if err := next.apply(options); err != nil {
		return err
	}
	*c = *next
	return nil
}

// SetOptions replaces all options. Fields missing from options return to their defaults; the auto-trim
// flag is left untouched.
func (c *Config) SetOptions(options map[string]any) error {
	next := defaultConfig()
	next.autoTrimEndpointSlash = c.autoTrimEndpointSlash
	if err := next.apply(options); err != nil {
		return err
	}
	*c = *next
	return nil
}

func (c *Config) apply(options map[string]any) error {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := c.SetOption(k, options[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options returns a map view of every option, including pass-through keys.
func (c *Config) Options() map[string]any {
	out := make(map[string]any, len(c.extra)+5)
	for k, v := range c.extra {
		out[k] = v
	}
	out[OptionBaseURI] = c.baseURI
	out[OptionTimeout] = c.Timeout().Milliseconds()
	out[OptionConnectTimeout] = c.ConnectTimeout().Milliseconds()
	out[OptionProxy] = c.Proxy()
	if c.responseType != ResponseTypeUnset {
		out[OptionResponseType] = c.responseType.String()
	}
	return out
}

// NeedAutoTrimEndpointSlash reports whether a leading slash is stripped from request URIs when a base
// URI is configured.
func (c *Config) NeedAutoTrimEndpointSlash() bool { return c.autoTrimEndpointSlash }

func (c *Config) DisableAutoTrimEndpointSlash() *Config {
	c.autoTrimEndpointSlash = false
	return c
}

func (c *Config) headers() map[string]string {
	raw, ok := c.extra[OptionHeaders]
	if !ok || raw == nil {
		return nil
	}
	h, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil
	}
	return h
}

func (c *Config) flag(key string, def bool) bool {
	raw, ok := c.extra[key]
	if !ok || raw == nil {
		return def
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return def
	}
	return b
}

// redirects reads allow_redirects: a bool, a positive max count, or a map with a "max" entry.
func (c *Config) redirects() (bool, int) {
	raw, ok := c.extra[OptionAllowRedirects]
	if !ok || raw == nil {
		return true, defaultMaxRedirects
	}
	switch v := raw.(type) {
	case bool:
		return v, defaultMaxRedirects
	case map[string]any:
		if limit, err := cast.ToIntE(v["max"]); err == nil && limit > 0 {
			return true, limit
		}
		return true, defaultMaxRedirects
	}
	if n, err := cast.ToIntE(raw); err == nil {
		return n > 0, n
	}
	if b, err := cast.ToBoolE(raw); err == nil {
		return b, defaultMaxRedirects
	}
	return true, defaultMaxRedirects
}

func toDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}

	ms, err := cast.ToInt64E(v)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("negative timeout %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func toProxy(v any) (map[string]string, error) {
	switch t := v.(type) {
	case nil:
		return map[string]string{}, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return map[string]string{}, nil
		}
		return map[string]string{"http": s, "https": s}, nil
	case map[string]any:
		if no, ok := t["no"]; ok {
			if hosts, err := cast.ToStringSliceE(no); err == nil {
				cp := maps.Clone(t)
				cp["no"] = strings.Join(hosts, ",")
				v = cp
			}
		}
	}

	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func toResponseType(v any) (ResponseType, error) {
	switch t := v.(type) {
	case nil:
		return ResponseTypeUnset, nil
	case ResponseType:
		if _, ok := responseTypeNames[t]; !ok && t != ResponseTypeUnset {
			return ResponseTypeUnset, fmt.Errorf("%w %d", ErrUnknownResponseType, int(t))
		}
		return t, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ResponseTypeUnset, err
	}
	return ParseResponseType(s)
}
