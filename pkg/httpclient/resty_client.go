package httpclient

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

// newRestyClient creates the engine instance described by cfg.
func newRestyClient(cfg *Config, log Logger) *resty.Client {
	c := resty.New()
	c.SetTransport(newTransport(cfg))
	c.SetTimeout(cfg.Timeout())

	if follow, limit := cfg.redirects(); follow {
		c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(limit))
	} else {
		c.SetRedirectPolicy(keepRedirectResponse)
	}
	if headers := cfg.headers(); len(headers) > 0 {
		c.SetHeaders(headers)
	}

	c.SetLogger(restyLogger{log: ensureLogger(log)})
	c.SetDebug(cfg.flag(OptionDebug, false))
	return c
}

// keepRedirectResponse hands the 3xx response back to the caller instead of following it.
var keepRedirectResponse = resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
})
