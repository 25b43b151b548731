package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-httpclient/internal/config"
	"github.com/samvad-hq/samvad-httpclient/internal/logger"
	"github.com/samvad-hq/samvad-httpclient/internal/poller"
	"github.com/samvad-hq/samvad-httpclient/internal/storage"
	"github.com/samvad-hq/samvad-httpclient/pkg/endpoints"
	"github.com/samvad-hq/samvad-httpclient/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpclient/pkg/publishers"
)

// Poller is the endpoint poller runtime. It owns the poll loop and the
// resources shared by every pass: the HTTP client, the publisher fanout and
// the digest store.
type Poller struct {
	cfg          *config.Config
	endpoints    []endpoints.Endpoint
	fanout       *publishers.Fanout
	service      *poller.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewPoller builds a poller runtime from config files.
func NewPoller(ctx context.Context, cfg *config.Config, log logger.Logger) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := endpoints.LoadEndpoints(cfg.EndpointsFile); err != nil {
		return nil, fmt.Errorf("load endpoints registry: %w", err)
	}
	eps := endpoints.Endpoints()
	endpointIDs := make([]string, 0, len(eps))
	for _, ep := range eps {
		endpointIDs = append(endpointIDs, ep.ID)
	}
	log.InfoObj("endpoints registry loaded", "endpoints_meta", map[string]any{
		"count": len(endpointIDs),
		"ids":   endpointIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients, log)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	client, err := newHTTPClient(cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	storeOpts := storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	processor := poller.NewEndpointProcessor(client, store, fanout, log)

	return &Poller{
		cfg:          cfg,
		endpoints:    eps,
		fanout:       fanout,
		service:      poller.NewService(processor, log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

func newHTTPClient(cfg *config.Config, log logger.Logger) (*httpclient.Client, error) {
	client, err := httpclient.New(cfg.HTTPOptions())
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}
	if !cfg.HTTPAutoTrimSlash {
		client.Config().DisableAutoTrimEndpointSlash()
	}
	client.SetLogger(log)
	return client, nil
}

// Run starts the poll loop until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if p == nil || p.service == nil {
		return fmt.Errorf("poller is not initialized")
	}
	defer p.close()

	if len(p.endpoints) == 0 {
		p.log.WarnObj("no endpoints configured; poller idle", "endpoints_file", p.cfg.EndpointsFile)
		<-ctx.Done()
		return nil
	}

	p.log.InfoObj("poll loop starting", "poller_state", map[string]any{
		"endpoints_count":  len(p.endpoints),
		"publishers_count": p.fanout.Size(),
		"poll_interval":    p.pollInterval.String(),
	})

	if err := p.runOnce(ctx); err != nil {
		p.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poll loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) error {
	start := time.Now()
	if err := p.service.Run(ctx, p.endpoints); err != nil {
		return err
	}
	p.log.DebugObj("poll pass finished", "poll_meta", map[string]any{
		"endpoints_count": len(p.endpoints),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the publishers and the storage backend, logging failures.
func (p *Poller) close() {
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publishers close failed", "error", err)
	}
	if p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err)
	}
}
