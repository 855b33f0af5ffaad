package server

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/providers/ai"
	"github.com/ssparihar/essayflow/providers/history"
)

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	// ConversationId continues an existing conversation; empty starts a new one.
	ConversationId string `json:"conversation_id"`
	Message        string `json:"message"`

	// Temperature overrides the sampling temperature for this exchange.
	Temperature *float32 `json:"temperature,omitempty"`
}

// sseEvent is one frame of the chat response stream.
type sseEvent struct {
	Type     string         `json:"type"` // text | structured | error | done
	Text     string         `json:"text,omitempty"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`

	// ConversationId is sent on the done frame so new conversations can be
	// continued.
	ConversationId string `json:"conversation_id,omitempty"`
}

// handleChat streams an assistant reply as server-sent events and persists
// the updated conversation once the stream ends.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var request chatRequest
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	message := strings.TrimSpace(request.Message)
	if message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message must not be empty")
	}

	// Pasted HTML is converted to markdown before it reaches the model, so
	// the transcript stays readable text.
	if looksLikeHTML(message) {
		if converted, err := htmltomarkdown.ConvertString(message); err == nil {
			message = strings.TrimSpace(converted)
		} else {
			s.logger.Warn("html conversion failed, using raw input", "error", err)
		}
	}

	conversationID := request.ConversationId
	var conversation history.Conversation
	if conversationID == "" {
		conversationID = uuid.NewString()
		conversation = history.Conversation{Title: history.TitleFor(message)}
	} else {
		existing, found, err := s.store.Load(c.Context(), conversationID)
		if err != nil {
			s.logger.Warn("failed to load conversation, starting fresh", "id", conversationID, "error", err)
		}
		if found {
			conversation = existing
		} else {
			conversation = history.Conversation{Title: history.TitleFor(message)}
		}
	}

	conversation.Messages = append(conversation.Messages, history.Message{
		Role:    history.RoleUser,
		Content: message,
		SentAt:  history.SendTime(time.Now()),
	})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	// The fiber context is recycled once the handler returns; everything the
	// stream writer needs is captured here.
	messages := transcriptToMessages(conversation.Messages)

	var requestOptions []client.RequestOption
	if request.Temperature != nil {
		requestOptions = append(requestOptions, client.WithRequestGenerationConfig(
			&ai.GenerationConfig{Temperature: *request.Temperature},
		))
	}

	c.Context().SetBodyStreamWriter(func(writer *bufio.Writer) {
		s.streamReply(context.Background(), writer, conversationID, conversation, messages, requestOptions)
	})

	return nil
}

// streamReply drives the chunk sequence into the SSE writer, then persists
// the conversation with the assistant reply appended.
func (s *Server) streamReply(
	ctx context.Context,
	writer *bufio.Writer,
	conversationID string,
	conversation history.Conversation,
	messages []ai.Message,
	requestOptions []client.RequestOption,
) {
	var reply strings.Builder
	var replyMeta map[string]any
	failed := false

	for chunk := range s.chat.StreamConversation(ctx, messages, requestOptions...) {
		switch chunk.Kind {
		case ai.ChunkText:
			reply.WriteString(chunk.Text)
			writeEvent(writer, sseEvent{Type: "text", Text: chunk.Text})

		case ai.ChunkStructured:
			reply.WriteString(chunk.Content)
			replyMeta = chunk.Metadata
			writeEvent(writer, sseEvent{Type: "structured", Content: chunk.Content, Metadata: chunk.Metadata})

		case ai.ChunkError:
			failed = true
			writeEvent(writer, sseEvent{Type: "error", Error: chunk.Err})
		}
	}

	writeEvent(writer, sseEvent{Type: "done", ConversationId: conversationID})

	// A failed exchange is not persisted: the user message without a reply
	// would poison the next request's context.
	if failed {
		return
	}

	conversation.Messages = append(conversation.Messages, history.Message{
		Role:    history.RoleAssistant,
		Content: reply.String(),
		SentAt:  history.SendTime(time.Now()),
		Meta:    replyMeta,
	})
	conversation.UpdatedAt = history.Timestamp(time.Now())

	if err := s.store.Save(ctx, conversationID, conversation); err != nil {
		s.logger.Warn("failed to persist conversation", "id", conversationID, "error", err)
	}
}

// writeEvent emits one SSE frame and flushes it immediately so the client
// sees tokens as they arrive.
func writeEvent(writer *bufio.Writer, event sseEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	writer.WriteString("event: ")
	writer.WriteString(event.Type)
	writer.WriteString("\ndata: ")
	writer.Write(payload)
	writer.WriteString("\n\n")
	writer.Flush()
}

// transcriptToMessages converts stored transcript entries into the wire
// message list sent to the model.
func transcriptToMessages(transcript []history.Message) []ai.Message {
	messages := make([]ai.Message, 0, len(transcript))
	for _, entry := range transcript {
		role := ai.RoleUser
		if entry.Role == history.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: entry.Content})
	}
	return messages
}

// looksLikeHTML reports whether the input is markup rather than prose:
// it must open with a tag and contain a closing one.
func looksLikeHTML(input string) bool {
	trimmed := strings.TrimSpace(input)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, "</")
}
