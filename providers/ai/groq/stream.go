package groq

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ssparihar/essayflow/providers/ai"
)

// StreamMessage sends a chat request and returns a ChatStream yielding
// incremental deltas as they arrive. Pre-stream errors (auth, bad request,
// network) are returned directly; mid-stream errors are yielded through the
// iterator. The final usage frame, when Groq reports one, is surfaced as a
// metadata event before the done event.
func (p *GroqProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	client, err := p.ensureClient()
	if err != nil {
		return nil, err
	}

	stream, err := client.CreateChatCompletionStream(ctx, p.buildRequest(request, true))
	if err != nil {
		return nil, fmt.Errorf("groq stream start failed: %w", err)
	}

	iterator := func(yield func(ai.StreamEvent, error) bool) {
		defer stream.Close()

		var usage *ai.Usage
		var fingerprint string
		finishReason := ""

		for {
			frame, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				break
			}
			if recvErr != nil {
				yield(ai.StreamEvent{Type: ai.StreamEventError, Error: recvErr.Error()}, recvErr)
				return
			}

			if frame.SystemFingerprint != "" {
				fingerprint = frame.SystemFingerprint
			}
			if frame.Usage != nil {
				usage = &ai.Usage{
					PromptTokens:     frame.Usage.PromptTokens,
					CompletionTokens: frame.Usage.CompletionTokens,
					TotalTokens:      frame.Usage.TotalTokens,
				}
			}

			for _, choice := range frame.Choices {
				if choice.FinishReason != "" {
					finishReason = string(choice.FinishReason)
				}
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: choice.Delta.Content}, nil) {
					return
				}
			}
		}

		if usage != nil || fingerprint != "" {
			metadata := map[string]any{}
			if fingerprint != "" {
				metadata["system_fingerprint"] = fingerprint
			}
			if !yield(ai.StreamEvent{Type: ai.StreamEventMetadata, Metadata: metadata, Usage: usage}, nil) {
				return
			}
		}

		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
	}

	return ai.NewChatStream(iterator), nil
}
