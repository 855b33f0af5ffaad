package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ssparihar/essayflow/providers/ai"
)

// mockProvider is a synchronous-only provider that records the last request.
type mockProvider struct {
	response    *ai.ChatResponse
	err         error
	lastRequest *ai.ChatRequest
	callCount   int
}

func (m *mockProvider) SendMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	m.lastRequest = &request
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &ai.ChatResponse{Content: "ok"}, nil
}

func (m *mockProvider) WithAPIKey(string) ai.Provider           { return m }
func (m *mockProvider) WithBaseURL(string) ai.Provider          { return m }
func (m *mockProvider) WithHTTPClient(*http.Client) ai.Provider { return m }

// streamingMockProvider adds a scripted stream on top of mockProvider.
type streamingMockProvider struct {
	mockProvider
	events       []ai.StreamEvent
	streamErr    error // returned before the stream starts
	midStreamErr error // yielded after the scripted events
	capabilities ai.Capabilities
	streamCalls  int
}

func (m *streamingMockProvider) StreamMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	m.lastRequest = &request
	m.streamCalls++
	if m.streamErr != nil {
		return nil, m.streamErr
	}

	events := m.events
	midStreamErr := m.midStreamErr
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
		if midStreamErr != nil {
			yield(ai.StreamEvent{Type: ai.StreamEventError, Error: midStreamErr.Error()}, midStreamErr)
		}
	}), nil
}

func (m *streamingMockProvider) Capabilities() ai.Capabilities {
	return m.capabilities
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
}

func TestNewRejectsNilSendMiddleware(t *testing.T) {
	_, err := New(&mockProvider{}, WithMiddlewares(MiddlewareConfig{Send: nil}))
	if err == nil {
		t.Fatal("expected error for nil Send middleware")
	}
}

func TestSendMessageAppliesDefaults(t *testing.T) {
	provider := &mockProvider{}
	c, err := New(provider,
		WithSystemPrompt("you grade essays"),
		WithDefaultModel("test-model"),
		WithGenerationConfig(&ai.GenerationConfig{Temperature: 0.7}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	response, err := c.SendMessage(context.Background(), "grade this")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("content = %q", response.Content)
	}

	request := provider.lastRequest
	if request.Model != "test-model" {
		t.Errorf("model = %q", request.Model)
	}
	if request.SystemPrompt != "you grade essays" {
		t.Errorf("system prompt = %q", request.SystemPrompt)
	}
	if request.GenerationConfig == nil || request.GenerationConfig.Temperature != 0.7 {
		t.Errorf("generation config = %+v", request.GenerationConfig)
	}
	if len(request.Messages) != 1 || request.Messages[0].Role != ai.RoleUser {
		t.Errorf("messages = %+v", request.Messages)
	}
}

func TestSendConversationSanitizesRequest(t *testing.T) {
	// Provider whose capability table rejects penalties and temperature.
	provider := &streamingMockProvider{
		capabilities: ai.Capabilities{
			SupportsStreaming:    true,
			SupportsTopP:         true,
			SupportsMaxTokens:    true,
			SupportsSystemPrompt: true,
		},
	}

	c, err := New(provider, WithGenerationConfig(&ai.GenerationConfig{
		Temperature:      0.9,
		TopP:             0.5,
		FrequencyPenalty: 1.0,
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.SendConversation(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("SendConversation failed: %v", err)
	}

	config := provider.lastRequest.GenerationConfig
	if config == nil {
		t.Fatal("generation config dropped entirely")
	}
	if config.Temperature != 0 || config.FrequencyPenalty != 0 {
		t.Errorf("unsupported parameters not cleared: %+v", config)
	}
	if config.TopP != 0.5 {
		t.Errorf("supported parameter cleared: %+v", config)
	}
}

func TestWithModelOverridesDefault(t *testing.T) {
	provider := &mockProvider{}
	c, _ := New(provider, WithDefaultModel("default-model"))

	if _, err := c.SendMessage(context.Background(), "hi", WithModel("override-model")); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if provider.lastRequest.Model != "override-model" {
		t.Errorf("model = %q", provider.lastRequest.Model)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string

	record := func(name string) MiddlewareConfig {
		return MiddlewareConfig{
			Send: func(next SendFunc) SendFunc {
				return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
					order = append(order, name)
					return next(ctx, request)
				}
			},
		}
	}

	c, err := New(&mockProvider{}, WithMiddlewares(record("outer"), record("inner")))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v", order)
	}
}

func TestSendConversationPropagatesError(t *testing.T) {
	boom := errors.New("provider down")
	c, _ := New(&mockProvider{err: boom})

	_, err := c.SendMessage(context.Background(), "hi")
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestCanStream(t *testing.T) {
	syncOnly, _ := New(&mockProvider{})
	if syncOnly.CanStream() {
		t.Error("sync-only provider must not report streaming")
	}

	streaming, _ := New(&streamingMockProvider{capabilities: ai.DefaultCapabilities()})
	if !streaming.CanStream() {
		t.Error("streaming provider must report streaming")
	}

	// A streaming implementation whose capability table disables streaming
	// is treated as sync-only.
	disabled, _ := New(&streamingMockProvider{capabilities: ai.Capabilities{SupportsStreaming: false}})
	if disabled.CanStream() {
		t.Error("capability table must override the interface")
	}
}
