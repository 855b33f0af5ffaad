package client

import (
	"context"
	"fmt"

	"github.com/ssparihar/essayflow/providers/ai"
)

// Client wraps an ai.Provider with a configured system prompt, default model,
// generation parameters, and a middleware chain. A Client is safe for
// concurrent use: it holds no per-request state.
type Client struct {
	provider ai.Provider

	// streamProvider is the provider's streaming surface, resolved once at
	// construction via type assertion. It is nil when the provider cannot
	// stream or its capability table disables streaming.
	streamProvider ai.StreamProvider

	capabilities     ai.Capabilities
	systemPrompt     string
	defaultModel     string
	generationConfig *ai.GenerationConfig

	sendChain   SendFunc
	streamChain StreamFunc
}

// Option is a functional option for configuring a Client.
type Option func(*clientConfig)

// clientConfig accumulates construction-time settings.
type clientConfig struct {
	systemPrompt     string
	defaultModel     string
	generationConfig *ai.GenerationConfig
	middlewares      []MiddlewareConfig
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(systemPrompt string) Option {
	return func(config *clientConfig) {
		config.systemPrompt = systemPrompt
	}
}

// WithDefaultModel sets the model used when a request does not name one.
func WithDefaultModel(model string) Option {
	return func(config *clientConfig) {
		config.defaultModel = model
	}
}

// WithGenerationConfig sets default generation parameters for every request.
// Unsupported parameters are cleared per the provider's capability table
// before the request is sent.
func WithGenerationConfig(generationConfig *ai.GenerationConfig) Option {
	return func(config *clientConfig) {
		config.generationConfig = generationConfig
	}
}

// WithMiddlewares installs the middleware chain. The first entry is the
// outermost wrapper.
func WithMiddlewares(middlewares ...MiddlewareConfig) Option {
	return func(config *clientConfig) {
		config.middlewares = append(config.middlewares, middlewares...)
	}
}

// New creates a Client around the given provider. The provider's streaming
// surface and capability table are resolved once here; nothing is probed at
// request time.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("client: provider must not be nil")
	}

	config := &clientConfig{}
	for _, opt := range opts {
		opt(config)
	}

	for index, middlewareConfig := range config.middlewares {
		if middlewareConfig.Send == nil {
			return nil, fmt.Errorf("client: middleware %d has a nil Send function", index)
		}
	}

	capabilities := ai.CapabilitiesOf(provider)

	newClient := &Client{
		provider:         provider,
		capabilities:     capabilities,
		systemPrompt:     config.systemPrompt,
		defaultModel:     config.defaultModel,
		generationConfig: config.generationConfig,
	}

	if streamProvider, canStream := provider.(ai.StreamProvider); canStream && capabilities.SupportsStreaming {
		newClient.streamProvider = streamProvider
		newClient.streamChain = buildStreamChain(streamProvider.StreamMessage, config.middlewares)
	}

	newClient.sendChain = buildSendChain(provider.SendMessage, config.middlewares)

	return newClient, nil
}

// RequestOption adjusts a single request before it is sent.
type RequestOption func(*ai.ChatRequest)

// WithModel overrides the model for this request only.
func WithModel(model string) RequestOption {
	return func(request *ai.ChatRequest) {
		request.Model = model
	}
}

// WithRequestGenerationConfig overrides the generation parameters for this
// request only.
func WithRequestGenerationConfig(generationConfig *ai.GenerationConfig) RequestOption {
	return func(request *ai.ChatRequest) {
		request.GenerationConfig = generationConfig
	}
}

// SendMessage sends a single user prompt and returns the completed response.
func (c *Client) SendMessage(ctx context.Context, prompt string, opts ...RequestOption) (*ai.ChatResponse, error) {
	return c.SendConversation(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}}, opts...)
}

// SendConversation sends a full message history and returns the completed
// response. The request is sanitized against the provider's capability table
// before it enters the middleware chain.
func (c *Client) SendConversation(ctx context.Context, messages []ai.Message, opts ...RequestOption) (*ai.ChatResponse, error) {
	request := c.buildRequest(messages, opts)
	return c.sendChain(ctx, request)
}

// CanStream reports whether the underlying provider delivers incremental
// output. When false, StreamConversation degrades to a single-chunk sequence.
func (c *Client) CanStream() bool {
	return c.streamChain != nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// buildRequest assembles and sanitizes the wire request for a message list.
func (c *Client) buildRequest(messages []ai.Message, opts []RequestOption) ai.ChatRequest {
	request := ai.ChatRequest{
		Model:            c.defaultModel,
		Messages:         messages,
		SystemPrompt:     c.systemPrompt,
		GenerationConfig: c.generationConfig,
	}

	for _, opt := range opts {
		opt(&request)
	}

	return ai.SanitizeRequest(request, c.capabilities)
}
