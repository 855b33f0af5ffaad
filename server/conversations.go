package server

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ssparihar/essayflow/providers/history"
	"github.com/ssparihar/essayflow/render"
)

// conversationSummary is one row of the conversation listing.
type conversationSummary struct {
	Id        string  `json:"id"`
	Title     string  `json:"title"`
	UpdatedAt float64 `json:"timestamp"`
}

// handleListConversations returns all conversations, most recent first.
func (s *Server) handleListConversations(c *fiber.Ctx) error {
	all, err := s.store.All(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list conversations")
	}

	summaries := make([]conversationSummary, 0, len(all))
	for id, conversation := range all {
		title := conversation.Title
		if title == "" {
			title = "Untitled"
		}
		summaries = append(summaries, conversationSummary{
			Id:        id,
			Title:     title,
			UpdatedAt: conversation.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(a, b int) bool {
		return summaries[a].UpdatedAt > summaries[b].UpdatedAt
	})

	return c.JSON(summaries)
}

// handleGetConversation returns a full transcript. With ?rendered=1 each
// message body is additionally rendered to display HTML.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	id := c.Params("id")

	conversation, found, err := s.store.Load(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load conversation")
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "conversation not found")
	}

	if c.Query("rendered") != "1" {
		return c.JSON(conversation)
	}

	type renderedMessage struct {
		history.Message
		HTML string `json:"html"`
	}
	rendered := struct {
		Title     string            `json:"title"`
		Messages  []renderedMessage `json:"messages"`
		UpdatedAt float64           `json:"timestamp"`
	}{
		Title:     conversation.Title,
		UpdatedAt: conversation.UpdatedAt,
		Messages:  make([]renderedMessage, 0, len(conversation.Messages)),
	}
	for _, message := range conversation.Messages {
		rendered.Messages = append(rendered.Messages, renderedMessage{
			Message: message,
			HTML:    render.Markdown(message.Content),
		})
	}

	return c.JSON(rendered)
}

// handleCreateConversation starts an empty conversation and returns its id.
func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	var request struct {
		Title string `json:"title"`
	}
	// An empty body is fine; the title stays blank until the first message.
	_ = c.BodyParser(&request)

	id := uuid.NewString()
	conversation := history.Conversation{
		Title:     history.TitleFor(request.Title),
		UpdatedAt: history.Timestamp(time.Now()),
	}

	if err := s.store.Save(c.Context(), id, conversation); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create conversation")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// handleTranscript serves the conversation as a plain-text download. Each
// message renders as a "[ts] You:" or "[ts] Assistant:" header line followed
// by the content and a blank separator line.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	id := c.Params("id")

	conversation, found, err := s.store.Load(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load conversation")
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "conversation not found")
	}

	var lines []string
	for _, message := range conversation.Messages {
		who := "Assistant"
		if message.Role == history.RoleUser {
			who = "You"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s:", message.SentAt, who), message.Content, "")
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=chat_%s.txt", id))
	return c.SendString(strings.Join(lines, "\n"))
}

// handleDeleteConversation removes one conversation.
func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete conversation")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleClearConversations removes every conversation.
func (s *Server) handleClearConversations(c *fiber.Ctx) error {
	if err := s.store.Clear(c.Context()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to clear conversations")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleRegenerate replays a conversation's last user message: the trailing
// assistant reply (if any) is dropped and the reply is streamed anew.
func (s *Server) handleRegenerate(c *fiber.Ctx) error {
	id := c.Params("id")

	conversation, found, err := s.store.Load(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load conversation")
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "conversation not found")
	}

	// Rewind to the last user message.
	messages := conversation.Messages
	for len(messages) > 0 && messages[len(messages)-1].Role == history.RoleAssistant {
		messages = messages[:len(messages)-1]
	}
	if len(messages) == 0 {
		return fiber.NewError(fiber.StatusConflict, "conversation has no user message to regenerate")
	}
	conversation.Messages = messages

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	wireMessages := transcriptToMessages(conversation.Messages)

	c.Context().SetBodyStreamWriter(func(writer *bufio.Writer) {
		s.streamReply(context.Background(), writer, id, conversation, wireMessages, nil)
	})

	return nil
}

// handleEvaluate runs the essay evaluation pipeline synchronously.
func (s *Server) handleEvaluate(c *fiber.Ctx) error {
	var request struct {
		Essay string `json:"essay"`
	}
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(request.Essay) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "essay must not be empty")
	}

	result, err := s.evaluator.Evaluate(c.Context(), request.Essay)
	if err != nil {
		s.logger.Error("essay evaluation failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, "evaluation failed")
	}

	return c.JSON(result)
}
