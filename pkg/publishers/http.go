package publishers

import (
	"context"
	"fmt"

	"github.com/samvad-hq/samvad-httpclient/pkg/httpclient"
)

type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Requester
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client, err := httpclient.New(map[string]any{
		httpclient.OptionTimeout:      cfg.HTTP.TimeoutSeconds * 1000,
		httpclient.OptionResponseType: "raw",
	})
	if err != nil {
		return nil, fmt.Errorf("publisher %q http client: %w", cfg.ID, err)
	}
	client.SetLogger(log)

	return &httpPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event as a JSON body. Responses with a 4xx/5xx status fail.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	_, err := h.client.RequestRaw(ctx, h.url, h.method, httpclient.RequestOptions{
		JSON:    evt,
		Headers: h.headers,
	})
	if err != nil {
		return fmt.Errorf("http publish: %w", err)
	}
	return nil
}
