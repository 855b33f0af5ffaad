package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ssparihar/essayflow/providers/ai"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = ModelGPTOSS20B
)

// Model identifiers commonly served by Groq.
const (
	ModelGPTOSS20B           = "openai/gpt-oss-20b"
	ModelGPTOSS120B          = "openai/gpt-oss-120b"
	ModelLlama318BInstant    = "llama-3.1-8b-instant"
	ModelLlama3370BVersatile = "llama-3.3-70b-versatile"
)

// ErrMissingAPIKey is returned at invocation time when the provider was
// constructed without credentials. Construction itself never fails on a
// missing key: the process starts in a degraded state and every generation
// call reports this error instead.
var ErrMissingAPIKey = errors.New("groq: API key not configured (set GROQ_API_KEY)")

// GroqProvider implements the ai.Provider interface for Groq's
// OpenAI-compatible inference API.
type GroqProvider struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	capabilities ai.Capabilities

	client *openai.Client
}

var (
	_ ai.Provider           = (*GroqProvider)(nil)
	_ ai.StreamProvider     = (*GroqProvider)(nil)
	_ ai.CapabilityProvider = (*GroqProvider)(nil)
)

// New creates a new Groq provider instance with default values from environment.
// Environment variables:
//   - GROQ_API_KEY: API key for authentication
//   - GROQ_API_BASE_URL: Base URL for API (optional, defaults to Groq's endpoint)
func New() *GroqProvider {
	baseURL := os.Getenv("GROQ_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GroqProvider{
		apiKey:       os.Getenv("GROQ_API_KEY"),
		baseURL:      baseURL,
		capabilities: detectCapabilities(baseURL),
	}
}

// WithAPIKey sets the API key for the provider.
func (p *GroqProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	p.client = nil
	return p
}

// WithBaseURL sets the base URL for the API and re-detects the capability
// table for the new endpoint.
func (p *GroqProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	p.capabilities = detectCapabilities(baseURL)
	p.client = nil
	return p
}

// WithHTTPClient sets a custom HTTP client.
func (p *GroqProvider) WithHTTPClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	p.client = nil
	return p
}

// WithCapabilities overrides the detected capability table. Use this for
// non-standard OpenAI-compatible hosts whose feature set differs from what
// the base URL suggests.
func (p *GroqProvider) WithCapabilities(capabilities ai.Capabilities) *GroqProvider {
	p.capabilities = capabilities
	return p
}

// Capabilities returns the static capability table for the configured endpoint.
func (p *GroqProvider) Capabilities() ai.Capabilities {
	return p.capabilities
}

// SendMessage sends a chat request and returns the completed response.
func (p *GroqProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	client, err := p.ensureClient()
	if err != nil {
		return nil, err
	}

	completion, err := client.CreateChatCompletion(ctx, p.buildRequest(request, false))
	if err != nil {
		return nil, fmt.Errorf("groq chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("groq returned no completion choices (id=%s)", completion.ID)
	}

	choice := completion.Choices[0]
	response := &ai.ChatResponse{
		Id:           completion.ID,
		Model:        completion.Model,
		Created:      completion.Created,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: &ai.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}

	if completion.SystemFingerprint != "" {
		response.Metadata = map[string]any{
			"system_fingerprint": completion.SystemFingerprint,
		}
	}

	return response, nil
}

// ensureClient lazily constructs the underlying go-openai client, failing
// with ErrMissingAPIKey when no credential is configured.
func (p *GroqProvider) ensureClient() (*openai.Client, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if p.client == nil {
		config := openai.DefaultConfig(p.apiKey)
		config.BaseURL = p.baseURL
		if p.httpClient != nil {
			config.HTTPClient = p.httpClient
		}
		p.client = openai.NewClientWithConfig(config)
	}

	return p.client, nil
}

// buildRequest converts an ai.ChatRequest into the go-openai wire type.
// The request is assumed to already be sanitized against the capability
// table, so every parameter present here is safe to send.
func (p *GroqProvider) buildRequest(request ai.ChatRequest, stream bool) openai.ChatCompletionRequest {
	model := request.Model
	if model == "" {
		model = defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(request.Messages)+1)
	if request.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: request.SystemPrompt,
		})
	}
	for _, message := range request.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}

	wire := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}

	if stream {
		// Ask for the final usage frame so streams can report token counts.
		wire.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	if config := request.GenerationConfig; config != nil {
		wire.Temperature = config.Temperature
		wire.TopP = config.TopP
		wire.MaxTokens = config.MaxTokens
		wire.FrequencyPenalty = config.FrequencyPenalty
		wire.PresencePenalty = config.PresencePenalty
	}

	return wire
}
