// Package client provides a high-level LLM client with middleware support.
//
// A Client wraps an ai.Provider with a configured system prompt, default
// model, generation parameters, and a middleware chain for cross-cutting
// concerns (logging, timeouts, retries). Requests are sanitized against the
// provider's capability table before they reach the wire, and streaming
// output is normalized into a uniform chunk sequence regardless of whether
// the provider can actually stream.
package client
