package endpoints

import "strings"

// ConfigString returns the trimmed string value for key from ep.Config or a fallback.
func ConfigString(ep Endpoint, key, fallback string) string {
	if ep.Config != nil {
		if raw, ok := ep.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
	ConfigAuthorizationKey  = "authorization"
)

var configHeaders = []struct {
	key    string
	header string
}{
	{ConfigUserAgentKey, "User-Agent"},
	{ConfigAcceptKey, "Accept"},
	{ConfigAcceptLanguageKey, "Accept-Language"},
	{ConfigCacheControlKey, "Cache-Control"},
	{ConfigAuthorizationKey, "Authorization"},
}

// Headers merges config-derived headers with the endpoint's explicit headers; explicit ones win.
// Empty values are skipped.
func Headers(ep Endpoint) map[string]string {
	headers := make(map[string]string, len(configHeaders)+len(ep.Headers))

	for _, h := range configHeaders {
		if v := ConfigString(ep, h.key, ""); v != "" {
			headers[h.header] = v
		}
	}
	for k, v := range ep.Headers {
		k = strings.TrimSpace(k)
		if v = strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}

	return headers
}
