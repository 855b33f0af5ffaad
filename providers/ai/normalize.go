package ai

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// StructuredPrefix is the sentinel marker prepended to serialized structured
// payloads in a chunk stream, so consumers can distinguish them from plain
// text with a single prefix check.
const StructuredPrefix = "[__STRUCTURED__]"

// codeKeywords is the fixed keyword set of the "looks like code" heuristic.
// Model output frequently contains bare code without fences; any of these
// substrings (or a newline combined with an existing fence marker) marks the
// fragment as code.
var codeKeywords = []string{
	"def ", "class ", "import ", "from ", "if ", "for ", "while ",
	"try ", "except ", "return ", "func ", "package ",
}

// structuredFieldPriority is the fixed extraction order for recognized
// provider-response fields. Priority fields are serialized first; any
// remaining keys follow in sorted order so the output is deterministic.
var structuredFieldPriority = []string{
	"content", "additional_kwargs", "response_metadata", "type", "id", "name",
}

// LooksLikeCode reports whether text appears to be a code fragment: it
// contains one of the fixed code keywords, or both a newline and a fence
// marker.
func LooksLikeCode(text string) bool {
	for _, keyword := range codeKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return strings.Contains(text, "\n") && strings.Contains(text, "```")
}

// FormatText applies the code-block heuristic to a plain text fragment.
// Text already containing a fence marker passes through unchanged; text that
// looks like code is wrapped in fences; everything else is returned as-is.
func FormatText(text string) string {
	if strings.Contains(text, "```") {
		return text
	}
	if LooksLikeCode(text) {
		return "```\n" + text + "\n```"
	}
	return text
}

// FormatStructured serializes a structured payload (content plus metadata)
// as a single JSON object tagged with [StructuredPrefix]. The content field
// leads, recognized provider fields follow in priority order, and any
// remaining metadata keys are appended in sorted order.
func FormatStructured(content string, metadata map[string]any) string {
	payload := make(map[string]any, len(metadata)+1)
	for key, value := range metadata {
		payload[key] = value
	}
	if content != "" {
		payload["content"] = content
	}
	return StructuredPrefix + marshalOrdered(payload)
}

// IsStructuredPayload reports whether a map carries any of the recognized
// provider-response fields (content, additional_kwargs, response_metadata).
func IsStructuredPayload(payload map[string]any) bool {
	for _, key := range []string{"content", "additional_kwargs", "response_metadata"} {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}

// FormatPayload renders an arbitrary value as display text:
//
//   - strings go through the code-block heuristic;
//   - maps with recognized provider fields are serialized with the sentinel
//     prefix; other maps are pretty-printed as indented JSON;
//   - chat responses use their content (with metadata promoted to a
//     structured payload when present);
//   - errors render their message;
//   - anything else falls back to its textual representation, or a debug
//     representation when stringification panics.
func FormatPayload(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""

	case string:
		return FormatText(typed)

	case map[string]any:
		if IsStructuredPayload(typed) {
			return StructuredPrefix + marshalOrdered(typed)
		}
		return prettyJSON(typed)

	case *ChatResponse:
		if typed == nil {
			return ""
		}
		return FormatPayload(*typed)

	case ChatResponse:
		if len(typed.Metadata) > 0 {
			return FormatStructured(typed.Content, typed.Metadata)
		}
		return FormatText(typed.Content)

	case error:
		return typed.Error()

	default:
		return stringify(value)
	}
}

// marshalOrdered serializes a payload map with priority fields first and the
// remaining keys sorted, producing a stable field order that encoding/json's
// map marshalling (always fully sorted) cannot.
func marshalOrdered(payload map[string]any) string {
	ordered := make([]string, 0, len(payload))
	seen := make(map[string]bool, len(payload))

	for _, key := range structuredFieldPriority {
		if _, ok := payload[key]; ok {
			ordered = append(ordered, key)
			seen[key] = true
		}
	}

	remaining := make([]string, 0, len(payload))
	for key := range payload {
		if !seen[key] {
			remaining = append(remaining, key)
		}
	}
	sort.Strings(remaining)
	ordered = append(ordered, remaining...)

	var builder strings.Builder
	builder.WriteByte('{')
	for index, key := range ordered {
		if index > 0 {
			builder.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(key)
		builder.Write(keyJSON)
		builder.WriteByte(':')

		valueJSON, err := json.Marshal(payload[key])
		if err != nil {
			valueJSON, _ = json.Marshal(fmt.Sprintf("%v", payload[key]))
		}
		builder.Write(valueJSON)
	}
	builder.WriteByte('}')
	return builder.String()
}

// prettyJSON renders a map as two-space-indented JSON, falling back to %v on
// marshalling failure so the result is always displayable.
func prettyJSON(payload map[string]any) string {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(encoded)
}

// stringify converts a value to text via %v, recovering to the %#v debug
// representation if a custom String method panics along the way.
func stringify(value any) (result string) {
	defer func() {
		if recover() != nil {
			result = fmt.Sprintf("%#v", value)
		}
	}()

	result = FormatText(fmt.Sprintf("%v", value))
	return result
}
