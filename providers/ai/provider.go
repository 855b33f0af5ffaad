package ai

import (
	"context"
	"net/http"
)

// Provider is the core interface that every LLM provider implementation must
// satisfy. It covers the full lifecycle of a single request: authentication,
// endpoint configuration, message dispatch, and response interpretation.
// Use [StreamProvider] in addition when the provider supports streaming.
type Provider interface {
	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHTTPClient sets the HTTP client used for outbound requests.
	WithHTTPClient(httpClient *http.Client) Provider
}

// StreamProvider is an optional interface that providers can implement to
// support streaming (SSE-based) responses. Callers detect streaming support
// via type assertion: provider.(StreamProvider). If the provider does not
// implement this interface, callers fall back to the synchronous SendMessage
// method and deliver the result as a single chunk.
//
// This explicit capability contract replaces runtime probing of candidate
// method names: a provider either implements StreamProvider or it does not.
type StreamProvider interface {
	Provider

	// StreamMessage sends a chat request and returns a ChatStream that yields
	// incremental deltas as they arrive from the API. Pre-stream errors
	// (auth, bad request, network) are returned as a normal error. Mid-stream
	// errors are yielded through the iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// CapabilityProvider is an optional interface for providers that publish a
// static [Capabilities] table describing which request features their endpoint
// accepts. Callers use [CapabilitiesOf] rather than asserting directly.
type CapabilityProvider interface {
	Capabilities() Capabilities
}
