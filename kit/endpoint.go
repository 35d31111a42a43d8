// Package kit holds the small transport-agnostic plumbing shared by the
// axwatch surfaces: the Endpoint abstraction, middleware chaining, context
// keys, and the MCP tool adapter.
package kit

import "context"

// Endpoint is one transport-agnostic operation. HTTP handlers and MCP tools
// both decode into a typed request and hand it to an Endpoint.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left-to-right: the first argument is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
