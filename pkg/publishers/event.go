package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-httpclient/internal/domain"
)

// Event represents the payload published downstream when an endpoint's response changes.
type Event struct {
	EndpointID   string          `json:"endpoint_id"`
	EndpointName string          `json:"endpoint_name"`
	Snapshot     domain.Snapshot `json:"snapshot"`
	PublishedAt  time.Time       `json:"published_at"`
}

// NewEvent wraps a snapshot for publishing.
func NewEvent(snap domain.Snapshot) Event {
	return Event{
		EndpointID:   snap.EndpointID,
		EndpointName: snap.EndpointName,
		Snapshot:     snap,
		PublishedAt:  time.Now().UTC(),
	}
}

// attributes are attached to queue and topic messages so consumers can filter without decoding the body.
// Empty values are left out.
func (e Event) attributes() map[string]string {
	out := make(map[string]string, 2)
	if e.EndpointID != "" {
		out["endpoint_id"] = e.EndpointID
	}
	if e.Snapshot.Digest != "" {
		out["digest"] = e.Snapshot.Digest
	}
	return out
}
