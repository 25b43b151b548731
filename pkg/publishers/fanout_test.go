package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

type closingPublisher struct {
	stubPublisher
	closeErr error
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return c.closeErr
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	failure := errors.New("failed")
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		nil,
		&stubPublisher{id: "bad", typ: "http", err: failure},
	}, nil)

	if fanout.Size() != 2 {
		t.Fatalf("nil publishers must be dropped, size %d", fanout.Size())
	}
	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if !errors.Is(err, failure) {
		t.Fatalf("expected aggregated error, got %v", err)
	}
}

func TestFanoutCloseOnlyClosers(t *testing.T) {
	plain := &stubPublisher{id: "plain"}
	closer := &closingPublisher{stubPublisher: stubPublisher{id: "c1"}}
	broken := &closingPublisher{stubPublisher: stubPublisher{id: "c2"}, closeErr: errors.New("stuck")}

	err := NewFanout([]Publisher{plain, closer, broken}, nil).Close()
	if err == nil {
		t.Fatalf("expected close error")
	}
	if !closer.closed || !broken.closed {
		t.Fatalf("expected closers to be closed")
	}

	var empty *Fanout
	if n, err := empty.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout must be a no-op")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com", Method: "POST", TimeoutSeconds: 1}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllClosesBuiltPublishersOnFailure(t *testing.T) {
	built := &closingPublisher{stubPublisher: stubPublisher{id: "first"}}
	reg := NewRegistry(map[string]Builder{
		"ok": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return built, nil },
		"bad": func(context.Context, PublisherConfig, Logger) (Publisher, error) {
			return nil, errors.New("cannot build")
		},
	})

	_, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "a", Type: "ok"},
		{ID: "b", Type: "bad"},
	}, nil)
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !built.closed {
		t.Fatalf("expected already built publisher to be closed")
	}

	if _, err := reg.PublisherFor(context.Background(), PublisherConfig{ID: "c", Type: "kafka"}, nil); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
