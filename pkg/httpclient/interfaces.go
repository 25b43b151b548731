package httpclient

import "context"

// Requester is the request surface callers depend on so they can inject fakes or a preconfigured Client.
type Requester interface {
	Request(ctx context.Context, uri, method string, opts RequestOptions, returnRaw bool) (*Result, error)
	RequestRaw(ctx context.Context, uri, method string, opts RequestOptions) (*Response, error)
}

var _ Requester = (*Client)(nil)
