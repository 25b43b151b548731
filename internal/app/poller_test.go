package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-httpclient/internal/config"
	"github.com/samvad-hq/samvad-httpclient/pkg/publishers"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T, endpointsYAML, publishersYAML string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppName:                "samvad-poller",
		EndpointsFile:          writeFile(t, dir, "endpoints.yaml", endpointsYAML),
		PublishersFile:         writeFile(t, dir, "publishers.yaml", publishersYAML),
		PollInterval:           time.Hour,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "snapshots.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
		HTTPTimeoutMS:          2000,
		HTTPConnectTimeoutMS:   2000,
		HTTPResponseType:       "array",
		HTTPAutoTrimSlash:      true,
	}
}

func TestPollerPublishesToHTTPSink(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/latest" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"headline":"Monsoon arrives","count":3}`)
	}))
	defer source.Close()

	events := make(chan publishers.Event, 4)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		events <- evt
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	cfg := testConfig(t, `
endpoints:
  - id: latest
    name: Latest headline
    base_uri: `+source.URL+`/feed/
    path: /latest
    extract:
      headline: headline
    request_delay_ms: 1
`, `
publishers:
  - id: sink
    type: http
    http:
      url: `+sink.URL+`/events
`)

	p, err := NewPoller(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case evt := <-events:
		if evt.EndpointID != "latest" || evt.Snapshot.Fields["headline"] != "Monsoon arrives" {
			t.Fatalf("unexpected event %+v", evt)
		}
		if evt.Snapshot.Digest == "" || evt.Snapshot.StatusCode != http.StatusOK {
			t.Fatalf("unexpected snapshot %+v", evt.Snapshot)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for published event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestNewPollerErrors(t *testing.T) {
	if _, err := NewPoller(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	endpointsYAML := `
endpoints:
  - id: a
    name: A
    path: https://example.com/a
`
	cfg := testConfig(t, endpointsYAML, `
publishers:
  - id: off
    type: http
    enabled: false
    http:
      url: https://example.com/hook
`)
	if _, err := NewPoller(context.Background(), cfg, nil); err == nil || !strings.Contains(err.Error(), "no publishers") {
		t.Fatalf("expected no publishers error, got %v", err)
	}

	cfg = testConfig(t, endpointsYAML, `
publishers:
  - id: hook
    type: http
    http:
      url: https://example.com/hook
`)
	cfg.StorageType = "redis"
	if _, err := NewPoller(context.Background(), cfg, nil); err == nil || !strings.Contains(err.Error(), "init storage") {
		t.Fatalf("expected storage error, got %v", err)
	}

	cfg.EndpointsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewPoller(context.Background(), cfg, nil); err == nil || !strings.Contains(err.Error(), "endpoints") {
		t.Fatalf("expected endpoints error, got %v", err)
	}
}

func TestPollerRunUninitialized(t *testing.T) {
	var p *Poller
	if err := p.Run(context.Background()); err == nil {
		t.Fatalf("expected error for nil poller")
	}
}
