package ai

import (
	"context"
	"net/http"
	"testing"
)

// strictProvider rejects any request that still carries a temperature, mimicking
// an endpoint that errors on unsupported sampling parameters. Its capability
// table declares temperature unsupported, so sanitized requests never trip it.
type strictProvider struct {
	response *ChatResponse
}

var _ Provider = (*strictProvider)(nil)
var _ CapabilityProvider = (*strictProvider)(nil)

func (provider *strictProvider) SendMessage(_ context.Context, request ChatRequest) (*ChatResponse, error) {
	if request.GenerationConfig != nil && request.GenerationConfig.Temperature != 0 {
		return nil, &unsupportedParameterError{parameter: "temperature"}
	}
	return provider.response, nil
}

func (provider *strictProvider) WithAPIKey(string) Provider           { return provider }
func (provider *strictProvider) WithBaseURL(string) Provider          { return provider }
func (provider *strictProvider) WithHTTPClient(*http.Client) Provider { return provider }

func (provider *strictProvider) Capabilities() Capabilities {
	capabilities := DefaultCapabilities()
	capabilities.SupportsTemperature = false
	return capabilities
}

type unsupportedParameterError struct {
	parameter string
}

func (err *unsupportedParameterError) Error() string {
	return "unexpected parameter '" + err.parameter + "'"
}

func TestSanitizeRequestStripsUnsupportedParameter(t *testing.T) {
	provider := &strictProvider{response: &ChatResponse{Content: "ok"}}

	request := ChatRequest{
		Messages:         []Message{{Role: RoleUser, Content: "hi"}},
		GenerationConfig: &GenerationConfig{Temperature: 0.7},
	}

	// Unsanitized, the provider rejects the call.
	if _, err := provider.SendMessage(context.Background(), request); err == nil {
		t.Fatal("expected unsanitized request to fail")
	}

	sanitized := SanitizeRequest(request, CapabilitiesOf(provider))
	response, err := provider.SendMessage(context.Background(), sanitized)
	if err != nil {
		t.Fatalf("sanitized request failed: %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("unexpected content %q", response.Content)
	}

	// The original request must not be mutated.
	if request.GenerationConfig.Temperature != 0.7 {
		t.Error("SanitizeRequest mutated the input request")
	}
}

func TestSanitizeRequestDropsEmptyConfig(t *testing.T) {
	request := ChatRequest{
		GenerationConfig: &GenerationConfig{Temperature: 0.5},
	}
	capabilities := DefaultCapabilities()
	capabilities.SupportsTemperature = false

	sanitized := SanitizeRequest(request, capabilities)
	if sanitized.GenerationConfig != nil {
		t.Errorf("expected nil config once every field is cleared, got %+v", sanitized.GenerationConfig)
	}
}

func TestSanitizeRequestFoldsSystemPrompt(t *testing.T) {
	request := ChatRequest{
		SystemPrompt: "be terse",
		Messages:     []Message{{Role: RoleUser, Content: "hi"}},
	}
	capabilities := DefaultCapabilities()
	capabilities.SupportsSystemPrompt = false

	sanitized := SanitizeRequest(request, capabilities)
	if sanitized.SystemPrompt != "" {
		t.Error("system prompt not cleared")
	}
	if len(sanitized.Messages) != 2 || sanitized.Messages[0].Content != "be terse" {
		t.Errorf("system prompt not folded into messages: %+v", sanitized.Messages)
	}
}

func TestCapabilitiesOfDefaults(t *testing.T) {
	provider := &plainProvider{}
	capabilities := CapabilitiesOf(provider)
	if !capabilities.SupportsStreaming || !capabilities.SupportsTemperature {
		t.Errorf("expected permissive defaults, got %+v", capabilities)
	}
}

// plainProvider implements only the base Provider interface.
type plainProvider struct{}

func (provider *plainProvider) SendMessage(context.Context, ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{}, nil
}
func (provider *plainProvider) WithAPIKey(string) Provider           { return provider }
func (provider *plainProvider) WithBaseURL(string) Provider          { return provider }
func (provider *plainProvider) WithHTTPClient(*http.Client) Provider { return provider }
