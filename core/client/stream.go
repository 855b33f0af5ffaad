package client

import (
	"context"
	"iter"

	"github.com/ssparihar/essayflow/providers/ai"
)

// StreamConversation sends a message history and returns a normalized chunk
// sequence, hiding the difference between streaming and non-streaming
// providers behind one shape:
//
//   - A streaming provider yields text chunks as deltas arrive, with
//     structured chunks for any side-channel metadata the stream carries.
//   - If the stream fails to start, the call degrades to a synchronous
//     request whose entire response is delivered as one text chunk.
//   - A provider without streaming support goes straight to the synchronous
//     path and yields one text chunk.
//   - Any error after the above fallbacks is surfaced as a single terminal
//     error chunk; no chunk ever follows it.
//
// The returned sequence is lazy: nothing is sent until iteration begins, and
// breaking out of the loop abandons the underlying stream.
func (c *Client) StreamConversation(ctx context.Context, messages []ai.Message, opts ...RequestOption) iter.Seq[ai.Chunk] {
	request := c.buildRequest(messages, opts)

	return func(yield func(ai.Chunk) bool) {
		if c.streamChain == nil {
			c.yieldSynchronous(ctx, request, yield)
			return
		}

		stream, err := c.streamChain(ctx, request)
		if err != nil {
			// Stream never started, so nothing was partially delivered and a
			// plain request is still worth trying.
			c.yieldSynchronous(ctx, request, yield)
			return
		}

		for event, iterErr := range stream.Iter() {
			if iterErr != nil {
				// Mid-stream failure: part of the response may already be out,
				// so retrying synchronously would duplicate content. Terminal.
				yield(ai.ErrorChunk(iterErr.Error()))
				return
			}

			chunk, ok := ai.ChunkFromEvent(event)
			if !ok {
				continue
			}

			if !yield(chunk) {
				return
			}
		}
	}
}

// yieldSynchronous performs a plain request and delivers the whole response
// as exactly one chunk: a text chunk on success, a terminal error chunk on
// failure.
func (c *Client) yieldSynchronous(ctx context.Context, request ai.ChatRequest, yield func(ai.Chunk) bool) {
	response, err := c.sendChain(ctx, request)
	if err != nil {
		yield(ai.ErrorChunk(err.Error()))
		return
	}

	yield(ai.TextChunk(response.Content))
}
