package middleware

import (
	"context"
	"time"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/providers/ai"
)

// NewTimeoutMiddleware creates a MiddlewareConfig that enforces a per-request
// deadline on both synchronous and streaming provider calls.
//
// For send requests the context is wrapped with context.WithTimeout and
// cancel is deferred. For streaming requests the cancel function is instead
// called once the stream is fully consumed, errors, or is abandoned, so the
// timeout governs the complete lifetime of the stream rather than just the
// time to first byte.
//
// If the caller supplies a context with a shorter deadline, that deadline
// wins as per normal context semantics.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send:   buildSendTimeout(timeout),
		Stream: buildStreamTimeout(timeout),
	}
}

// buildSendTimeout constructs the send middleware that adds a deadline.
func buildSendTimeout(timeout time.Duration) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}

// buildStreamTimeout constructs the stream middleware that adds a deadline
// and wraps the resulting ChatStream so cancel fires when the stream ends.
func buildStreamTimeout(timeout time.Duration) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				cancel()
				return nil, err
			}

			return wrapStreamWithCancel(stream, cancel), nil
		}
	}
}

// wrapStreamWithCancel returns a new ChatStream whose iterator calls cancel
// once the stream finishes, errors, or the caller breaks out of the loop.
func wrapStreamWithCancel(stream *ai.ChatStream, cancel context.CancelFunc) *ai.ChatStream {
	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer cancel()

		for event, err := range stream.Iter() {
			if !yield(event, err) {
				return
			}

			if err != nil {
				return
			}

			if event.Type == ai.StreamEventDone {
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc)
}
