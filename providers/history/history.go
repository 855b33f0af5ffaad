package history

import (
	"context"
	"time"
)

// Message roles stored in a conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TitleLimit is the maximum number of characters kept from the first user
// prompt when deriving a conversation title.
const TitleLimit = 60

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// SentAt is a human-readable send time ("Jan 02 15:04"), kept as display
	// text rather than a machine timestamp.
	SentAt string `json:"ts,omitempty"`

	// Meta carries provider side-channel data attached to assistant messages,
	// such as token usage or model fingerprints.
	Meta map[string]any `json:"meta,omitempty"`
}

// Conversation is a stored chat session.
type Conversation struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`

	// UpdatedAt is seconds since the Unix epoch (fractional), used to order
	// conversation listings most-recent-first.
	UpdatedAt float64 `json:"timestamp"`
}

// Store persists conversations keyed by ID. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes the conversation under id, overwriting any existing one.
	Save(ctx context.Context, id string, conversation Conversation) error

	// Load retrieves the conversation with the given id. The boolean reports
	// whether it exists.
	Load(ctx context.Context, id string) (Conversation, bool, error)

	// All returns every stored conversation keyed by ID.
	All(ctx context.Context) (map[string]Conversation, error)

	// Delete removes the conversation with the given id. Deleting a missing
	// id is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes every stored conversation.
	Clear(ctx context.Context) error
}

// TitleFor derives a conversation title from the first user prompt: the
// prompt itself when short enough, otherwise the first TitleLimit characters
// with a "..." suffix. Truncation counts runes, never bytes, so a multi-byte
// character at the cut point stays intact.
func TitleFor(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= TitleLimit {
		return prompt
	}
	return string(runes[:TitleLimit]) + "..."
}

// SendTime formats a message send time for transcript display.
func SendTime(t time.Time) string {
	return t.Format("Jan 02 15:04")
}

// Timestamp converts a time to the fractional epoch-seconds representation
// stored on conversations.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
