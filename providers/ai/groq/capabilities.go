package groq

import (
	"strings"

	"github.com/ssparihar/essayflow/providers/ai"
)

// detectCapabilities selects the static capability table for an
// OpenAI-compatible endpoint based on its base URL. The table is fixed per
// host family; it is never learned from error responses at runtime.
func detectCapabilities(baseURL string) ai.Capabilities {
	baseURL = strings.ToLower(baseURL)

	// Groq: fast OpenAI-compatible inference. Rejects the repetition-penalty
	// parameters on most served models, accepts everything else.
	if strings.Contains(baseURL, "api.groq.com") {
		return ai.Capabilities{
			SupportsStreaming:    true,
			SupportsTemperature:  true,
			SupportsTopP:         true,
			SupportsPenalties:    false,
			SupportsMaxTokens:    true,
			SupportsSystemPrompt: true,
		}
	}

	// Real OpenAI API.
	if strings.Contains(baseURL, "api.openai.com") {
		return ai.Capabilities{
			SupportsStreaming:    true,
			SupportsTemperature:  true,
			SupportsTopP:         true,
			SupportsPenalties:    true,
			SupportsMaxTokens:    true,
			SupportsSystemPrompt: true,
		}
	}

	// Conservative defaults for unknown OpenAI-compatible hosts: keep the
	// request to the widely implemented core of the protocol.
	return ai.Capabilities{
		SupportsStreaming:    true,
		SupportsTemperature:  true,
		SupportsTopP:         true,
		SupportsPenalties:    false,
		SupportsMaxTokens:    true,
		SupportsSystemPrompt: true,
	}
}
