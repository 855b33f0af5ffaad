// Package server exposes the chat and evaluation pipeline over HTTP.
//
// It wires a Fiber application with three surfaces: a streaming chat
// endpoint that relays normalized chunks as server-sent events, a
// conversation store CRUD surface backed by a history.Store, and an essay
// evaluation endpoint running the parallel dimension pipeline. Persistence
// failures never break a chat response; they are logged and the stream
// completes regardless.
package server
