package poller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-httpclient/internal/domain"
	"github.com/samvad-hq/samvad-httpclient/internal/logger"
	"github.com/samvad-hq/samvad-httpclient/pkg/endpoints"
	"github.com/samvad-hq/samvad-httpclient/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpclient/pkg/publishers"
)

// EndpointProcessor polls a single endpoint and publishes its snapshot when the body changed.
type EndpointProcessor struct {
	client     httpclient.Requester
	store      DigestStore
	publisher  EventPublisher
	extractors map[string]Extractor
	log        logger.Logger
	now        func() time.Time
}

// NewEndpointProcessor wires the processor. A nil store never reports a previous digest and a nil
// publisher skips publishing.
func NewEndpointProcessor(client httpclient.Requester, store DigestStore, pub EventPublisher, log logger.Logger) *EndpointProcessor {
	if log == nil {
		log = logger.NopLogger()
	}
	return &EndpointProcessor{
		client:     client,
		store:      store,
		publisher:  pub,
		extractors: DefaultExtractors(),
		log:        log,
		now:        time.Now,
	}
}

// RegisterExtractor sets the extractor used for a response format.
func (p *EndpointProcessor) RegisterExtractor(format string, ex Extractor) {
	if ex == nil {
		return
	}
	p.extractors[format] = ex
}

// Process fetches ep and reports whether a new snapshot was published.
func (p *EndpointProcessor) Process(ctx context.Context, ep endpoints.Endpoint) (bool, error) {
	resp, err := p.client.RequestRaw(ctx, ep.Path, ep.Method, ep.RequestOptions())
	if err != nil {
		return false, fmt.Errorf("request endpoint %s: %w", ep.ID, err)
	}

	digest := Digest(resp.Body())
	if p.store != nil {
		last, found, err := p.store.LastDigest(ep.ID)
		if err != nil {
			return false, fmt.Errorf("load digest for endpoint %s: %w", ep.ID, err)
		}
		if found && last == digest {
			p.log.DebugObj("endpoint unchanged", "endpoint_unchanged", map[string]any{
				"endpoint_id": ep.ID,
				"digest":      digest,
			})
			return false, nil
		}
	}

	snap := domain.Snapshot{
		EndpointID:   ep.ID,
		EndpointName: ep.Name,
		Method:       ep.Method,
		Path:         ep.Path,
		StatusCode:   resp.StatusCode(),
		ContentType:  resp.Header().Get("Content-Type"),
		Digest:       digest,
		Fields:       p.extract(ep, resp),
		FetchedAt:    p.now().UTC(),
	}

	if p.publisher != nil {
		delivered, err := p.publisher.Publish(ctx, publishers.NewEvent(snap))
		if err != nil && delivered == 0 {
			return false, fmt.Errorf("publish endpoint %s: %w", ep.ID, err)
		}
		if err != nil {
			p.log.WarnObj("snapshot partially published", "publish_partial", map[string]any{
				"endpoint_id": ep.ID,
				"delivered":   delivered,
				"error":       err.Error(),
			})
		}
	}

	if p.store != nil {
		if err := p.store.SaveDigest(ep.ID, digest); err != nil {
			return true, fmt.Errorf("save digest for endpoint %s: %w", ep.ID, err)
		}
	}
	return true, nil
}

// extract never fails the poll; a snapshot without fields is still published.
func (p *EndpointProcessor) extract(ep endpoints.Endpoint, resp *httpclient.Response) map[string]any {
	ex, err := extractorFor(p.extractors, ep.ResponseFormat)
	if err == nil {
		var fields map[string]any
		if fields, err = ex.Extract(ep, resp); err == nil {
			return fields
		}
	}
	p.log.WarnObj("field extraction failed", "extract_error", map[string]any{
		"endpoint_id": ep.ID,
		"format":      ep.ResponseFormat,
		"error":       err.Error(),
	})
	return nil
}

// Digest returns the hex SHA-256 of body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
