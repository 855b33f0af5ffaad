package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // All messages in the conversation except the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
}

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

// GenerationConfig carries optional sampling parameters. Zero values mean
// "not set"; SanitizeRequest additionally clears fields the target provider
// does not accept, so unsupported parameters never reach the wire.
type GenerationConfig struct {
	MaxTokens        int     `json:"max_tokens,omitempty"`        // Optional max tokens for the response
	Temperature      float32 `json:"temperature,omitempty"`       // Sampling temperature [0..2]. Higher => more random.
	TopP             float32 `json:"top_p,omitempty"`             // Nucleus sampling [0..1]. Alternative to temperature.
	FrequencyPenalty float32 `json:"frequency_penalty,omitempty"` // Penalty [-2..2]. Positive values reduce repetition.
	PresencePenalty  float32 `json:"presence_penalty,omitempty"`  // Penalty [-2..2]. Positive values encourage new topics.
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the completed response from a chat request.
// Metadata carries provider side-channel data (model fingerprints, filter
// results, anything vendor-specific) as opaque key/value pairs.
type ChatResponse struct {
	Id           string         `json:"id"`
	Model        string         `json:"model"`
	Created      int64          `json:"created"`
	Content      string         `json:"content"`
	FinishReason string         `json:"finish_reason,omitempty"`
	Usage        *Usage         `json:"usage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)
