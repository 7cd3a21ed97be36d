package http

import (
	"context"
	"time"
)

const (
	// ReadChunkSize is the most the server reads for a single request. A
	// request that does not fit in one read is parsed as truncated and
	// rejected with 400.
	ReadChunkSize = 8192

	// ReadIdleTimeout bounds the wait for the next request on a kept-alive
	// connection. Applied per read attempt, not per connection lifetime.
	ReadIdleTimeout = 30 * time.Second
)

// ServerName is the value of the default Server response header.
const ServerName = "Pebble/0.1"

// Handler turns a parsed request into a response. The server writes the
// returned response verbatim; handlers must not return nil.
type Handler func(ctx context.Context, req *Request) *Response
