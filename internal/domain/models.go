package domain

import "time"

// Snapshot is one observed state of a polled endpoint.
type Snapshot struct {
	EndpointID   string         `json:"endpoint_id"`
	EndpointName string         `json:"endpoint_name"`
	Method       string         `json:"method"`
	Path         string         `json:"path"`
	StatusCode   int            `json:"status_code"`
	ContentType  string         `json:"content_type,omitempty"`
	Digest       string         `json:"digest"`
	Fields       map[string]any `json:"fields,omitempty"`
	FetchedAt    time.Time      `json:"fetched_at"`
}
