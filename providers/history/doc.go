// Package history defines the conversation persistence contract for chat
// sessions: a Store keyed by conversation ID, where each conversation keeps
// its title, ordered message list, and a last-updated timestamp used for
// most-recent-first listings.
//
// Two implementations ship with it: jsonfile persists the whole store as a
// single JSON document with atomic replace-on-write, and inmemory keeps
// everything in process memory for tests and ephemeral sessions.
package history
