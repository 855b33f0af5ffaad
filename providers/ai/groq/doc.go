// Package groq implements the ai.Provider, ai.StreamProvider, and
// ai.CapabilityProvider interfaces for Groq's hosted inference API.
// Groq exposes an OpenAI-compatible surface, so the adapter is built on the
// go-openai client with the base URL pointed at Groq; the same adapter
// therefore also works against api.openai.com or any compatible endpoint by
// overriding the base URL.
//
// The capability table is selected statically from the base URL. Parameters
// an endpoint does not accept are declared there and stripped by
// ai.SanitizeRequest before a request is built; there is no error-message
// parsing or retry-with-parameter-removed at runtime.
package groq
