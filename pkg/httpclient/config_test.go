package httpclient

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Timeout() != DefaultTimeout {
		t.Fatalf("expected default timeout %s, got %s", DefaultTimeout, cfg.Timeout())
	}
	if cfg.ConnectTimeout() != DefaultConnectTimeout {
		t.Fatalf("expected default connect timeout %s, got %s", DefaultConnectTimeout, cfg.ConnectTimeout())
	}
	if cfg.BaseURI() != "" {
		t.Fatalf("expected empty base uri, got %q", cfg.BaseURI())
	}
	if len(cfg.Proxy()) != 0 {
		t.Fatalf("expected empty proxy map, got %v", cfg.Proxy())
	}
	if cfg.ResponseType() != ResponseTypeUnset {
		t.Fatalf("expected unset response type, got %v", cfg.ResponseType())
	}
	if !cfg.NeedAutoTrimEndpointSlash() {
		t.Fatalf("expected auto-trim enabled by default")
	}
}

func TestNewConfigOverlaysOptions(t *testing.T) {
	cfg, err := NewConfig(map[string]any{
		OptionBaseURI:        " https://api.example.com/v1/ ",
		OptionTimeout:        1500,
		OptionConnectTimeout: "250ms",
		OptionResponseType:   "collection",
		OptionProxy:          "http://proxy.local:8080",
		"headers":            map[string]string{"X-Api-Key": "k"},
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.BaseURI() != "https://api.example.com/v1/" {
		t.Fatalf("unexpected base uri %q", cfg.BaseURI())
	}
	if cfg.Timeout() != 1500*time.Millisecond {
		t.Fatalf("unexpected timeout %s", cfg.Timeout())
	}
	if cfg.ConnectTimeout() != 250*time.Millisecond {
		t.Fatalf("unexpected connect timeout %s", cfg.ConnectTimeout())
	}
	if cfg.ResponseType() != ResponseTypeCollection {
		t.Fatalf("unexpected response type %v", cfg.ResponseType())
	}
	proxy := cfg.Proxy()
	if proxy["http"] != "http://proxy.local:8080" || proxy["https"] != "http://proxy.local:8080" {
		t.Fatalf("unexpected proxy map %v", proxy)
	}
	if got := cfg.headers()["X-Api-Key"]; got != "k" {
		t.Fatalf("expected pass-through header, got %q", got)
	}
}

func TestConfigOptionFallsBackToDefault(t *testing.T) {
	cfg, _ := NewConfig(nil)
	if got := cfg.Option("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := cfg.Option(OptionBaseURI, "none"); got != "none" {
		t.Fatalf("expected default for unset base uri, got %v", got)
	}
	if got := cfg.Option(OptionTimeout, nil); got != int64(3000) {
		t.Fatalf("expected timeout in ms, got %v", got)
	}
	if err := cfg.SetOption("verify", false); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if got := cfg.Option("verify", true); got != false {
		t.Fatalf("expected stored pass-through, got %v", got)
	}
}

func TestConfigSetOptionRejectsBadValues(t *testing.T) {
	cfg, _ := NewConfig(nil)

	if err := cfg.SetOption(OptionTimeout, "soon"); err == nil {
		t.Fatalf("expected error for non-numeric timeout")
	}
	if err := cfg.SetOption(OptionTimeout, -5); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
	err := cfg.SetOption(OptionResponseType, "xml")
	if !errors.Is(err, ErrUnknownResponseType) {
		t.Fatalf("expected ErrUnknownResponseType, got %v", err)
	}
	if cfg.Timeout() != DefaultTimeout {
		t.Fatalf("failed set must not change timeout, got %s", cfg.Timeout())
	}
}

func TestConfigMergeOptionsIsAtomic(t *testing.T) {
	cfg, _ := NewConfig(map[string]any{OptionBaseURI: "https://a.example"})

	err := cfg.MergeOptions(map[string]any{
		OptionBaseURI: "https://b.example",
		OptionTimeout: "never",
	})
	if err == nil {
		t.Fatalf("expected merge error")
	}
	if cfg.BaseURI() != "https://a.example" {
		t.Fatalf("merge must not partially apply, base uri is %q", cfg.BaseURI())
	}

	if err := cfg.MergeOptions(map[string]any{OptionTimeout: 10}); err != nil {
		t.Fatalf("MergeOptions: %v", err)
	}
	if cfg.BaseURI() != "https://a.example" || cfg.Timeout() != 10*time.Millisecond {
		t.Fatalf("merge lost values: base=%q timeout=%s", cfg.BaseURI(), cfg.Timeout())
	}
}

func TestConfigSetOptionsResetsButKeepsTrimFlag(t *testing.T) {
	cfg, _ := NewConfig(map[string]any{
		OptionBaseURI: "https://a.example",
		OptionTimeout: 10,
		"debug":       true,
	})
	cfg.DisableAutoTrimEndpointSlash()

	if err := cfg.SetOptions(map[string]any{OptionResponseType: "object"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if cfg.BaseURI() != "" {
		t.Fatalf("expected base uri reset, got %q", cfg.BaseURI())
	}
	if cfg.Timeout() != DefaultTimeout {
		t.Fatalf("expected timeout reset, got %s", cfg.Timeout())
	}
	if cfg.flag("debug", false) {
		t.Fatalf("expected pass-through options dropped")
	}
	if cfg.ResponseType() != ResponseTypeObject {
		t.Fatalf("expected object response type, got %v", cfg.ResponseType())
	}
	if cfg.NeedAutoTrimEndpointSlash() {
		t.Fatalf("SetOptions must not re-enable auto-trim")
	}
}

func TestConfigProxyMapWithNoList(t *testing.T) {
	cfg, err := NewConfig(map[string]any{
		OptionProxy: map[string]any{
			"http":  "http://p:1",
			"https": "http://p:2",
			"no":    []string{"localhost", ".internal"},
		},
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	proxy := cfg.Proxy()
	if proxy["no"] != "localhost,.internal" {
		t.Fatalf("unexpected no list %q", proxy["no"])
	}

	proxy["http"] = "mutated"
	if cfg.Proxy()["http"] != "http://p:1" {
		t.Fatalf("Proxy must return a copy")
	}
}

func TestConfigRedirects(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		follow bool
		limit  int
	}{
		{name: "unset", value: nil, follow: true, limit: defaultMaxRedirects},
		{name: "false", value: false, follow: false, limit: defaultMaxRedirects},
		{name: "count", value: 2, follow: true, limit: 2},
		{name: "zero", value: 0, follow: false, limit: 0},
		{name: "map", value: map[string]any{"max": 7}, follow: true, limit: 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, _ := NewConfig(nil)
			if tc.value != nil {
				_ = cfg.SetOption(OptionAllowRedirects, tc.value)
			}
			follow, limit := cfg.redirects()
			if follow != tc.follow || limit != tc.limit {
				t.Fatalf("expected (%v,%d), got (%v,%d)", tc.follow, tc.limit, follow, limit)
			}
		})
	}
}

func TestParseResponseType(t *testing.T) {
	for in, want := range map[string]ResponseType{
		"":           ResponseTypeUnset,
		"array":      ResponseTypeArray,
		" Object ":   ResponseTypeObject,
		"collection": ResponseTypeCollection,
		"RAW":        ResponseTypeRaw,
	} {
		got, err := ParseResponseType(in)
		if err != nil {
			t.Fatalf("ParseResponseType(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseResponseType(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseResponseType("xml"); !errors.Is(err, ErrUnknownResponseType) {
		t.Fatalf("expected ErrUnknownResponseType, got %v", err)
	}
}
