package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/providers/ai"
)

func TestTimeoutCancelsSlowSend(t *testing.T) {
	next := client.SendFunc(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		select {
		case <-time.After(time.Second):
			return &ai.ChatResponse{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	config := NewTimeoutMiddleware(10 * time.Millisecond)
	_, err := config.Send(next)(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestTimeoutAllowsFastSend(t *testing.T) {
	next := client.SendFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{Content: "fast"}, nil
	})

	config := NewTimeoutMiddleware(time.Second)
	response, err := config.Send(next)(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "fast" {
		t.Errorf("content = %q", response.Content)
	}
}

func TestTimeoutCoversStreamLifetime(t *testing.T) {
	// The deadline must remain live while the stream is being consumed, not
	// just until the first byte.
	next := client.StreamFunc(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatStream, error) {
		return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: "first"}, nil) {
				return
			}
			select {
			case <-time.After(time.Second):
				yield(ai.StreamEvent{Type: ai.StreamEventDone}, nil)
			case <-ctx.Done():
				yield(ai.StreamEvent{Type: ai.StreamEventError, Error: ctx.Err().Error()}, ctx.Err())
			}
		}), nil
	})

	config := NewTimeoutMiddleware(20 * time.Millisecond)
	stream, err := config.Stream(next)(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("stream start failed: %v", err)
	}

	var sawDeadline bool
	for _, iterErr := range stream.Iter() {
		if errors.Is(iterErr, context.DeadlineExceeded) {
			sawDeadline = true
		}
	}

	if !sawDeadline {
		t.Error("expected deadline to fire mid-stream")
	}
}
