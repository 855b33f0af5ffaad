// Package ai defines the provider-facing contract of essayflow: the request
// and response types exchanged with hosted LLM inference APIs, the Provider
// and StreamProvider interfaces implemented by adapters, static capability
// tables that describe what a given endpoint accepts, and the Chunk tagged
// variant used to deliver normalized incremental output to consumers.
//
// Adapters live in subpackages (e.g. [github.com/ssparihar/essayflow/providers/ai/groq])
// and translate between these types and the vendor wire format. Everything a
// consumer sees (plain text fragments, structured metadata payloads, terminal
// stream errors) arrives as a [Chunk], so no caller ever inspects raw
// provider shapes at runtime.
package ai
