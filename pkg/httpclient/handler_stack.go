package httpclient

import (
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "samvad-httpclient/1.0"

// RequestHandler runs before a request is sent and may modify it.
type RequestHandler func(*resty.Client, *resty.Request) error

// ResponseHandler runs after a response has been read.
type ResponseHandler func(*resty.Client, *resty.Response) error

type namedHandler struct {
	name   string
	before RequestHandler
	after  ResponseHandler
}

// HandlerStack is an ordered, named middleware chain shared by every request of a Client.
// Handlers pushed after the engine was built still apply to later requests.
type HandlerStack struct {
	mu       sync.RWMutex
	handlers []namedHandler
}

// NewHandlerStack returns an empty stack.
func NewHandlerStack() *HandlerStack {
	return &HandlerStack{}
}

// CreateHandlerStack returns a stack holding the default handlers: "user_agent" fills in a
// User-Agent header and "log" records each completed request at debug level.
func CreateHandlerStack(log Logger) *HandlerStack {
	s := NewHandlerStack()
	s.PushRequest("user_agent", userAgentHandler(defaultUserAgent))
	s.PushResponse("log", logHandler(ensureLogger(log)))
	return s
}

// PushRequest appends a request handler. A handler already registered under name is replaced in place.
func (s *HandlerStack) PushRequest(name string, h RequestHandler) {
	if h == nil {
		return
	}
	s.push(namedHandler{name: name, before: h})
}

// PushResponse appends a response handler. A handler already registered under name is replaced in place.
func (s *HandlerStack) PushResponse(name string, h ResponseHandler) {
	if h == nil {
		return
	}
	s.push(namedHandler{name: name, after: h})
}

func (s *HandlerStack) push(h namedHandler) {
	h.name = strings.TrimSpace(h.name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if h.name != "" {
		for i := range s.handlers {
			if s.handlers[i].name == h.name {
				s.handlers[i] = h
				return
			}
		}
	}
	s.handlers = append(s.handlers, h)
}

// Remove drops the handler registered under name.
func (s *HandlerStack) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.handlers[:0]
	for _, h := range s.handlers {
		if h.name != name {
			out = append(out, h)
		}
	}
	s.handlers = out
}

// Names lists handler names in execution order.
func (s *HandlerStack) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.handlers))
	for _, h := range s.handlers {
		out = append(out, h.name)
	}
	return out
}

func (s *HandlerStack) snapshot() []namedHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]namedHandler(nil), s.handlers...)
}

func (s *HandlerStack) onBeforeRequest(c *resty.Client, r *resty.Request) error {
	for _, h := range s.snapshot() {
		if h.before == nil {
			continue
		}
		if err := h.before(c, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *HandlerStack) onAfterResponse(c *resty.Client, r *resty.Response) error {
	for _, h := range s.snapshot() {
		if h.after == nil {
			continue
		}
		if err := h.after(c, r); err != nil {
			return err
		}
	}
	return nil
}

// install routes the engine's middleware hooks through the stack.
func (s *HandlerStack) install(rc *resty.Client) {
	rc.OnBeforeRequest(s.onBeforeRequest)
	rc.OnAfterResponse(s.onAfterResponse)
}

func userAgentHandler(ua string) RequestHandler {
	return func(c *resty.Client, r *resty.Request) error {
		if r.Header.Get("User-Agent") != "" || c.Header.Get("User-Agent") != "" {
			return nil
		}
		r.SetHeader("User-Agent", ua)
		return nil
	}
}

func logHandler(log Logger) ResponseHandler {
	return func(_ *resty.Client, r *resty.Response) error {
		meta := map[string]any{
			"status":     r.StatusCode(),
			"elapsed_ms": r.Time().Milliseconds(),
		}
		if r.Request != nil {
			meta["method"] = r.Request.Method
			meta["url"] = r.Request.URL
		}
		log.DebugObj("http request completed", "http_request", meta)
		return nil
	}
}
