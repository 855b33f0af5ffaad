package ai

// ChunkKind identifies the variant of a Chunk.
type ChunkKind string

const (
	// ChunkText is a literal content fragment.
	ChunkText ChunkKind = "text"
	// ChunkStructured is content accompanied by side-channel metadata.
	ChunkStructured ChunkKind = "structured"
	// ChunkError is a terminal signal; no chunk ever follows it.
	ChunkError ChunkKind = "error"
)

// Chunk is one unit of normalized incremental output from a text-generation
// call. It is a tagged variant: exactly the fields belonging to Kind are
// meaningful. Chunks are produced lazily, in arrival order, by a single
// logical call; the sequence terminates on natural completion, on a ChunkError,
// or is entirely replaced by one synthesized text chunk when the producing
// call could not stream at all.
type Chunk struct {
	Kind     ChunkKind      `json:"kind"`
	Text     string         `json:"text,omitempty"`     // Kind == ChunkText
	Content  string         `json:"content,omitempty"`  // Kind == ChunkStructured
	Metadata map[string]any `json:"metadata,omitempty"` // Kind == ChunkStructured
	Err      string         `json:"error,omitempty"`    // Kind == ChunkError
}

// TextChunk returns a text chunk carrying the given fragment.
func TextChunk(text string) Chunk {
	return Chunk{Kind: ChunkText, Text: text}
}

// StructuredChunk returns a structured chunk carrying content plus arbitrary
// provider metadata.
func StructuredChunk(content string, metadata map[string]any) Chunk {
	return Chunk{Kind: ChunkStructured, Content: content, Metadata: metadata}
}

// ErrorChunk returns a terminal error chunk with the given description.
func ErrorChunk(message string) Chunk {
	return Chunk{Kind: ChunkError, Err: message}
}

// ChunkFromEvent converts a raw stream event into a normalized chunk.
// Done events produce no chunk (ok == false): stream termination is the
// consumer's loop ending, not a payload.
func ChunkFromEvent(event StreamEvent) (Chunk, bool) {
	switch event.Type {
	case StreamEventContent:
		return TextChunk(event.Content), true

	case StreamEventMetadata:
		metadata := event.Metadata
		if event.Usage != nil {
			merged := make(map[string]any, len(metadata)+1)
			for key, value := range metadata {
				merged[key] = value
			}
			merged["usage"] = map[string]any{
				"prompt_tokens":     event.Usage.PromptTokens,
				"completion_tokens": event.Usage.CompletionTokens,
				"total_tokens":      event.Usage.TotalTokens,
			}
			metadata = merged
		}
		if len(metadata) == 0 {
			return Chunk{}, false
		}
		return StructuredChunk(event.Content, metadata), true

	case StreamEventError:
		return ErrorChunk(event.Error), true

	default:
		return Chunk{}, false
	}
}

// Display renders the chunk as the text a chat consumer should show.
// Text chunks go through the code-block heuristic, structured chunks are
// serialized with the sentinel prefix so the consumer can tell them apart from
// plain prose, and error chunks render their message.
func (chunk Chunk) Display() string {
	switch chunk.Kind {
	case ChunkText:
		return FormatText(chunk.Text)
	case ChunkStructured:
		return FormatStructured(chunk.Content, chunk.Metadata)
	case ChunkError:
		return chunk.Err
	default:
		return ""
	}
}
