package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-httpclient/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

// Package endpoints loads the registry of remote endpoints (YAML/JSON) polled through httpclient.

// Response formats understood by the poller's extractors.
const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatText = "text"
)

type Endpoint struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Method         string            `json:"method" yaml:"method"`
	BaseURI        string            `json:"base_uri" yaml:"base_uri"`
	Path           string            `json:"path" yaml:"path"`
	Query          map[string]string `json:"query" yaml:"query"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	JSON           any               `json:"json" yaml:"json"`
	Form           map[string]string `json:"form" yaml:"form"`
	ResponseFormat string            `json:"response_format" yaml:"response_format"`
	Extract        map[string]string `json:"extract" yaml:"extract"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
	Config         map[string]any    `json:"config" yaml:"config"`
}

type registry struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

var (
	regMu                 sync.RWMutex
	currentReg            registry
	endpointsIdx          map[string]Endpoint
	defaultRequestDelayMs = 250
)

// Endpoints returns a copy of the currently loaded registry.
func Endpoints() []Endpoint {
	regMu.RLock()
	defer regMu.RUnlock()

	if len(currentReg.Endpoints) == 0 {
		return nil
	}

	out := make([]Endpoint, len(currentReg.Endpoints))
	copy(out, currentReg.Endpoints)
	return out
}

// EndpointByID returns the endpoint entry for the given id, if loaded.
func EndpointByID(id string) (Endpoint, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Endpoint{}, false
	}

	regMu.RLock()
	defer regMu.RUnlock()

	if endpointsIdx == nil {
		return Endpoint{}, false
	}

	ep, ok := endpointsIdx[id]
	return ep, ok
}

// LoadEndpoints parses the registry file at path and makes it the current registry.
func LoadEndpoints(path string) error {
	eps, err := Parse(path)
	if err != nil {
		return err
	}

	idx := make(map[string]Endpoint, len(eps))
	for _, ep := range eps {
		idx[ep.ID] = ep
	}

	regMu.Lock()
	currentReg = registry{Endpoints: eps}
	endpointsIdx = idx
	regMu.Unlock()

	return nil
}

// Parse reads, sanitises and validates the registry file at path without touching the loaded registry.
func Parse(path string) ([]Endpoint, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(reg.Endpoints) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	seen := make(map[string]struct{}, len(reg.Endpoints))
	for i := range reg.Endpoints {
		ep := sanitizeEndpoint(reg.Endpoints[i])
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoint[%d]: %w", i, err)
		}
		if _, exists := seen[ep.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		seen[ep.ID] = struct{}{}
		reg.Endpoints[i] = ep
	}
	return reg.Endpoints, nil
}

func parseRegistry(data []byte, ext string) (registry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		reg, err := unmarshalRegistry(d.name, data, d.fn)
		if err == nil {
			return reg, nil
		}
		errs = append(errs, err)
	}

	return registry{}, fmt.Errorf("endpoints file format not recognized (expected YAML or JSON): %w", errors.Join(errs...))
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registry, error) {
	var reg registry
	if err := fn(data, &reg); err != nil {
		return registry{}, fmt.Errorf("decode %s endpoints: %w", name, err)
	}
	return reg, nil
}

func sanitizeEndpoint(ep Endpoint) Endpoint {
	ep.ID = strings.TrimSpace(ep.ID)
	ep.Name = strings.TrimSpace(ep.Name)
	ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
	ep.BaseURI = strings.TrimSpace(ep.BaseURI)
	ep.Path = strings.TrimSpace(ep.Path)
	ep.ResponseFormat = strings.ToLower(strings.TrimSpace(ep.ResponseFormat))

	if ep.Method == "" {
		ep.Method = http.MethodGet
	}
	if ep.ResponseFormat == "" {
		ep.ResponseFormat = FormatJSON
	}
	if ep.Config == nil {
		ep.Config = map[string]any{}
	}
	if ep.RequestDelayMs <= 0 {
		ep.RequestDelayMs = defaultRequestDelayMs
	}

	return ep
}

func validateEndpoint(ep Endpoint) error {
	if ep.ID == "" {
		return errors.New("id is required")
	}
	if ep.Name == "" {
		return fmt.Errorf("name is required for endpoint %q", ep.ID)
	}
	if ep.Path == "" {
		return fmt.Errorf("path is required for endpoint %q", ep.ID)
	}
	switch ep.ResponseFormat {
	case FormatJSON, FormatHTML, FormatText:
	default:
		return fmt.Errorf("unsupported response_format %q for endpoint %q", ep.ResponseFormat, ep.ID)
	}
	if ep.JSON != nil && len(ep.Form) > 0 {
		return fmt.Errorf("endpoint %q sets both json and form bodies", ep.ID)
	}
	return nil
}

// RequestDelay returns the pause observed after polling the endpoint.
func (ep Endpoint) RequestDelay() time.Duration {
	if ep.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(ep.RequestDelayMs) * time.Millisecond
}

// RequestOptions turns the endpoint into per-call httpclient options.
func (ep Endpoint) RequestOptions() httpclient.RequestOptions {
	return httpclient.RequestOptions{
		Query:      ep.Query,
		FormParams: ep.Form,
		JSON:       ep.JSON,
		Headers:    Headers(ep),
		BaseURI:    ep.BaseURI,
	}
}
