package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/providers/ai"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	next := client.SendFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("upstream returned 503")
		}
		return &ai.ChatResponse{Content: "recovered"}, nil
	})

	config := NewRetryMiddleware(fastRetryConfig(3))
	response, err := config.Send(next)(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if response.Content != "recovered" || attempts != 3 {
		t.Errorf("content=%q attempts=%d", response.Content, attempts)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	fatal := errors.New("401 unauthorized")
	next := client.SendFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		attempts++
		return nil, fatal
	})

	config := NewRetryMiddleware(fastRetryConfig(3))
	_, err := config.Send(next)(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryExhaustion(t *testing.T) {
	next := client.SendFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, errors.New("status 429")
	})

	config := NewRetryMiddleware(fastRetryConfig(2))
	_, err := config.Send(next)(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	next := client.SendFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		cancel()
		return nil, errors.New("status 500")
	})

	config := NewRetryMiddleware(RetryConfig{MaxRetries: 5, InitialBackoff: time.Minute})
	_, err := config.Send(next)(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryStreamBypass(t *testing.T) {
	config := NewRetryMiddleware(fastRetryConfig(1))
	if config.Stream != nil {
		t.Error("retry middleware must not wrap streaming calls")
	}
}
