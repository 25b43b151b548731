package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-httpclient/internal/logger"
	"github.com/samvad-hq/samvad-httpclient/pkg/endpoints"
)

// Service runs poll passes across the configured endpoints.
type Service struct {
	processor *EndpointProcessor
	log       logger.Logger
}

// NewService wires a poller around the endpoint processor.
func NewService(processor *EndpointProcessor, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Service{processor: processor, log: log}
}

// Run polls every endpoint once, pausing for each endpoint's request delay in between. Failures are
// collected and returned together; a cancelled context ends the pass early without an error.
func (s *Service) Run(ctx context.Context, eps []endpoints.Endpoint) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("poller service is not initialized")
	}
	if len(eps) == 0 {
		return fmt.Errorf("no endpoints configured for polling")
	}

	errs := s.runAll(ctx, eps)
	return errors.Join(errs...)
}

func (s *Service) runAll(ctx context.Context, eps []endpoints.Endpoint) []error {
	var errs []error
	changed := 0

	for i, ep := range eps {
		if ctx.Err() != nil {
			break
		}

		updated, err := s.processor.Process(ctx, ep)
		switch {
		case err != nil && ctx.Err() != nil:
			return errs
		case err != nil:
			errs = append(errs, err)
			s.log.ErrorObj("endpoint poll failed", "endpoint_error", map[string]any{
				"endpoint_id": ep.ID,
				"error":       err.Error(),
			})
		case updated:
			changed++
		}

		if i < len(eps)-1 && !sleep(ctx, ep.RequestDelay()) {
			break
		}
	}

	s.log.InfoObj("poll pass completed", "poll_result", map[string]any{
		"endpoints": len(eps),
		"changed":   changed,
		"failed":    len(errs),
	})
	return errs
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
