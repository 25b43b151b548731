package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// dialNetwork is applied to every client built by this package; name resolution is limited to IPv4.
var dialNetwork = "tcp4"

// newTransport builds the round tripper for cfg: IPv4 dialing with the connect timeout, per-scheme
// proxies and the verify pass-through.
func newTransport(cfg *Config) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout(),
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		Proxy: proxyFunc(cfg.Proxy()),
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, dialNetwork, addr)
		},
		TLSHandshakeTimeout: cfg.ConnectTimeout(),
	}
	if !cfg.flag(OptionVerify, true) {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // caller opted out of verification
	}
	return t
}

// proxyFunc selects a proxy by request scheme. Hosts listed under "no" bypass the proxy; without any
// configured proxy the environment is consulted.
func proxyFunc(proxies map[string]string) func(*http.Request) (*url.URL, error) {
	if len(proxies) == 0 {
		return http.ProxyFromEnvironment
	}
	noProxy := splitHosts(proxies["no"])

	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, pattern := range noProxy {
			if matchHost(host, pattern) {
				return nil, nil
			}
		}
		raw := strings.TrimSpace(proxies[req.URL.Scheme])
		if raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
}

func splitHosts(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	switch {
	case pattern == "*":
		return true
	case strings.HasPrefix(pattern, "."):
		return strings.HasSuffix(host, pattern) || host == pattern[1:]
	default:
		return host == pattern
	}
}
