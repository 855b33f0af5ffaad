package client

import (
	"context"

	"github.com/ssparihar/essayflow/providers/ai"
)

// SendFunc is a function that sends a chat request to the LLM provider and
// returns the completed response. It is the base unit threaded through the
// send middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// StreamFunc is a function that sends a chat request to the LLM provider and
// returns a ChatStream for incremental token delivery. It is the base unit
// threaded through the stream middleware chain.
type StreamFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)

// Middleware intercepts and optionally transforms LLM send requests and
// responses. Each Middleware receives the next SendFunc in the chain and
// returns a new SendFunc that wraps it. Middlewares are applied
// outermost-first: the first middleware in the slice is the outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware is the streaming counterpart of Middleware. It intercepts
// stream requests and may wrap the returned ChatStream to observe or
// transform the event sequence.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its optional streaming
// counterpart. The Send field is required; a nil Send causes [New] to return
// an error. A nil Stream means streaming calls bypass this middleware entry
// entirely.
type MiddlewareConfig struct {
	// Send is the middleware applied to synchronous provider calls.
	Send Middleware

	// Stream is the optional middleware applied to streaming provider calls.
	Stream StreamMiddleware
}

// buildSendChain constructs the linear send middleware chain around the base
// provider call. Middlewares are applied in reverse order so that the first
// entry in the slice becomes the outermost wrapper.
func buildSendChain(base SendFunc, middlewares []MiddlewareConfig) SendFunc {
	chain := base

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}

	return chain
}

// buildStreamChain constructs the linear stream middleware chain around the
// base streaming call. Middlewares with a nil Stream field are skipped.
func buildStreamChain(base StreamFunc, middlewares []MiddlewareConfig) StreamFunc {
	chain := base

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}

	return chain
}
