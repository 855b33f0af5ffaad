// Package parse provides type-safe parsing of model output.
//
// Model responses are text first and data second: scores arrive embedded in
// prose, structured answers arrive as almost-JSON. This package turns both
// into Go values without surprising the caller, repairing malformed JSON
// where possible and falling back to documented defaults where not.
package parse
