package ai

// Capabilities is the statically known feature table of a provider endpoint.
// It replaces runtime discovery of unsupported request parameters (stripping
// keywords out of error messages and retrying): the table is consulted before
// a request is sent, and SanitizeRequest drops anything the endpoint does not
// accept, so the offending parameter never reaches the wire in the first place.
//
// Adapters return their table via [CapabilityProvider]; unknown providers get
// [DefaultCapabilities].
type Capabilities struct {
	SupportsStreaming    bool // SSE streaming responses
	SupportsTemperature  bool // temperature sampling parameter
	SupportsTopP         bool // nucleus (top-p) sampling parameter
	SupportsPenalties    bool // frequency/presence penalty parameters
	SupportsMaxTokens    bool // response token limit parameter
	SupportsSystemPrompt bool // dedicated system message slot
}

// DefaultCapabilities returns the table assumed for providers that do not
// implement [CapabilityProvider]: everything is passed through unchanged.
// A provider that cannot accept a parameter should say so explicitly rather
// than rely on callers guessing conservatively.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		SupportsStreaming:    true,
		SupportsTemperature:  true,
		SupportsTopP:         true,
		SupportsPenalties:    true,
		SupportsMaxTokens:    true,
		SupportsSystemPrompt: true,
	}
}

// CapabilitiesOf returns the capability table of provider, falling back to
// [DefaultCapabilities] when the provider does not publish one.
func CapabilitiesOf(provider Provider) Capabilities {
	if capable, ok := provider.(CapabilityProvider); ok {
		return capable.Capabilities()
	}
	return DefaultCapabilities()
}

// SanitizeRequest returns a copy of request with every generation parameter
// the capability table marks as unsupported cleared. The input request is not
// mutated. A system prompt on an endpoint without a dedicated system slot is
// folded into the message list as a leading user-role instruction rather than
// silently dropped.
func SanitizeRequest(request ChatRequest, capabilities Capabilities) ChatRequest {
	sanitized := request

	if request.GenerationConfig != nil {
		config := *request.GenerationConfig

		if !capabilities.SupportsTemperature {
			config.Temperature = 0
		}
		if !capabilities.SupportsTopP {
			config.TopP = 0
		}
		if !capabilities.SupportsPenalties {
			config.FrequencyPenalty = 0
			config.PresencePenalty = 0
		}
		if !capabilities.SupportsMaxTokens {
			config.MaxTokens = 0
		}

		if config == (GenerationConfig{}) {
			sanitized.GenerationConfig = nil
		} else {
			sanitized.GenerationConfig = &config
		}
	}

	if !capabilities.SupportsSystemPrompt && request.SystemPrompt != "" {
		messages := make([]Message, 0, len(request.Messages)+1)
		messages = append(messages, Message{Role: RoleUser, Content: request.SystemPrompt})
		messages = append(messages, request.Messages...)
		sanitized.Messages = messages
		sanitized.SystemPrompt = ""
	}

	return sanitized
}
