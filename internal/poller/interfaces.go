package poller

import (
	"context"

	"github.com/samvad-hq/samvad-httpclient/pkg/endpoints"
	"github.com/samvad-hq/samvad-httpclient/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpclient/pkg/publishers"
)

// Extractor pulls named fields out of an endpoint response.
type Extractor interface {
	Extract(ep endpoints.Endpoint, resp *httpclient.Response) (map[string]any, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ep endpoints.Endpoint, resp *httpclient.Response) (map[string]any, error)

func (f ExtractorFunc) Extract(ep endpoints.Endpoint, resp *httpclient.Response) (map[string]any, error) {
	return f(ep, resp)
}

// EventPublisher publishes changed snapshots downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// DigestStore remembers the last published body digest per endpoint.
type DigestStore interface {
	LastDigest(endpointID string) (string, bool, error)
	SaveDigest(endpointID, digest string) error
}
