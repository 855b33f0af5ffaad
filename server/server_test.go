package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/providers/ai"
	"github.com/ssparihar/essayflow/providers/history"
	"github.com/ssparihar/essayflow/providers/history/inmemory"
)

// stubProvider streams scripted deltas, or fails everything when err is set.
type stubProvider struct {
	reply        string
	streamDeltas []string
	err          error
}

func (p *stubProvider) SendMessage(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{Content: p.reply, FinishReason: "stop"}, nil
}

func (p *stubProvider) StreamMessage(context.Context, ai.ChatRequest) (*ai.ChatStream, error) {
	if p.err != nil {
		return nil, p.err
	}

	deltas := p.streamDeltas
	if len(deltas) == 0 {
		deltas = []string{p.reply}
	}

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, delta := range deltas {
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: delta}, nil) {
				return
			}
		}
		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"}, nil)
	}), nil
}

func (p *stubProvider) WithAPIKey(string) ai.Provider           { return p }
func (p *stubProvider) WithBaseURL(string) ai.Provider          { return p }
func (p *stubProvider) WithHTTPClient(*http.Client) ai.Provider { return p }

func newTestServer(t *testing.T, provider ai.Provider) (*Server, history.Store) {
	t.Helper()

	chatClient, err := client.New(provider)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}

	store := inmemory.New()
	server := New(Config{
		Client: chatClient,
		Store:  store,
		Logger: slog.New(slog.DiscardHandler),
	})
	return server, store
}

func jsonRequest(method, target, body string) *http.Request {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}

func TestChatStreamsAndPersists(t *testing.T) {
	provider := &stubProvider{streamDeltas: []string{"Hel", "lo!"}}
	server, store := newTestServer(t, provider)

	response, err := server.App().Test(jsonRequest("POST", "/api/chat", `{"message": "say hello"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}
	if contentType := response.Header.Get("Content-Type"); !strings.Contains(contentType, "text/event-stream") {
		t.Errorf("content type = %q", contentType)
	}

	body, _ := io.ReadAll(response.Body)
	output := string(body)

	if strings.Count(output, "event: text") != 2 {
		t.Errorf("expected two text frames: %s", output)
	}
	if !strings.Contains(output, "event: done") {
		t.Errorf("missing done frame: %s", output)
	}

	all, _ := store.All(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one stored conversation, got %d", len(all))
	}
	for _, conversation := range all {
		if conversation.Title != "say hello" {
			t.Errorf("title = %q", conversation.Title)
		}
		if len(conversation.Messages) != 2 {
			t.Fatalf("messages = %+v", conversation.Messages)
		}
		if conversation.Messages[1].Content != "Hello!" {
			t.Errorf("assistant reply = %q", conversation.Messages[1].Content)
		}
		if conversation.UpdatedAt == 0 {
			t.Error("timestamp not set")
		}
	}
}

func TestChatLongTitleTruncated(t *testing.T) {
	provider := &stubProvider{reply: "ok"}
	server, store := newTestServer(t, provider)

	long := strings.Repeat("q", 80)
	response, err := server.App().Test(jsonRequest("POST", "/api/chat", `{"message": "`+long+`"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	response.Body.Close()

	all, _ := store.All(context.Background())
	for _, conversation := range all {
		if conversation.Title != strings.Repeat("q", 60)+"..." {
			t.Errorf("title = %q", conversation.Title)
		}
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	server, _ := newTestServer(t, &stubProvider{reply: "ok"})

	response, err := server.App().Test(jsonRequest("POST", "/api/chat", `{"message": "  "}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if response.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", response.StatusCode)
	}
}

func TestChatErrorIsNotPersisted(t *testing.T) {
	provider := &stubProvider{err: io.ErrUnexpectedEOF}
	server, store := newTestServer(t, provider)

	response, err := server.App().Test(jsonRequest("POST", "/api/chat", `{"message": "hi"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()

	if !strings.Contains(string(body), "event: error") {
		t.Errorf("missing error frame: %s", body)
	}

	all, _ := store.All(context.Background())
	if len(all) != 0 {
		t.Errorf("failed exchange must not be persisted: %+v", all)
	}
}

func TestConversationListingAndDelete(t *testing.T) {
	server, store := newTestServer(t, &stubProvider{reply: "ok"})
	ctx := context.Background()

	_ = store.Save(ctx, "old", history.Conversation{Title: "old chat", UpdatedAt: 100})
	_ = store.Save(ctx, "new", history.Conversation{Title: "new chat", UpdatedAt: 200})

	response, err := server.App().Test(httptest.NewRequest("GET", "/api/conversations", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	var summaries []conversationSummary
	if err := json.NewDecoder(response.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Id != "new" {
		t.Errorf("listing = %+v", summaries)
	}

	deleteResponse, err := server.App().Test(httptest.NewRequest("DELETE", "/api/conversations/old", nil))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleteResponse.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", deleteResponse.StatusCode)
	}

	if _, found, _ := store.Load(ctx, "old"); found {
		t.Error("conversation survived delete")
	}
}

func TestGetConversationNotFound(t *testing.T) {
	server, _ := newTestServer(t, &stubProvider{reply: "ok"})

	response, err := server.App().Test(httptest.NewRequest("GET", "/api/conversations/ghost", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if response.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", response.StatusCode)
	}
}

func TestGetConversationRenderedHTML(t *testing.T) {
	server, store := newTestServer(t, &stubProvider{reply: "ok"})

	_ = store.Save(context.Background(), "conv", history.Conversation{
		Title: "chat",
		Messages: []history.Message{
			{Role: history.RoleAssistant, Content: "use **bold** text"},
		},
	})

	response, err := server.App().Test(httptest.NewRequest("GET", "/api/conversations/conv?rendered=1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	body, _ := io.ReadAll(response.Body)
	if !strings.Contains(string(body), `md-bold`) {
		t.Errorf("expected rendered markdown in response: %s", body)
	}
}

func TestRegenerateReplaysLastUserMessage(t *testing.T) {
	provider := &stubProvider{reply: "second answer"}
	server, store := newTestServer(t, provider)
	ctx := context.Background()

	_ = store.Save(ctx, "conv", history.Conversation{
		Title: "chat",
		Messages: []history.Message{
			{Role: history.RoleUser, Content: "question"},
			{Role: history.RoleAssistant, Content: "first answer"},
		},
	})

	response, err := server.App().Test(httptest.NewRequest("POST", "/api/conversations/conv/regenerate", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	io.Copy(io.Discard, response.Body)
	response.Body.Close()

	conversation, _, _ := store.Load(ctx, "conv")
	if len(conversation.Messages) != 2 {
		t.Fatalf("messages = %+v", conversation.Messages)
	}
	if conversation.Messages[1].Content != "second answer" {
		t.Errorf("regenerated reply = %q", conversation.Messages[1].Content)
	}
}

func TestCreateConversation(t *testing.T) {
	server, store := newTestServer(t, &stubProvider{reply: "ok"})

	response, err := server.App().Test(jsonRequest("POST", "/api/conversations", `{"title": "draft"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", response.StatusCode)
	}

	var created struct {
		Id string `json:"id"`
	}
	if err := json.NewDecoder(response.Body).Decode(&created); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if created.Id == "" {
		t.Fatal("missing conversation id")
	}

	conversation, found, _ := store.Load(context.Background(), created.Id)
	if !found || conversation.Title != "draft" {
		t.Errorf("stored conversation = %+v (found=%v)", conversation, found)
	}
}

func TestTranscriptDownload(t *testing.T) {
	server, store := newTestServer(t, &stubProvider{reply: "ok"})

	_ = store.Save(context.Background(), "conv", history.Conversation{
		Title: "chat",
		Messages: []history.Message{
			{Role: history.RoleUser, Content: "hello", SentAt: "Jan 02 15:04"},
			{Role: history.RoleAssistant, Content: "hi there", SentAt: "Jan 02 15:05"},
		},
	})

	response, err := server.App().Test(httptest.NewRequest("GET", "/api/conversations/conv/transcript", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	if disposition := response.Header.Get("Content-Disposition"); !strings.Contains(disposition, "chat_conv.txt") {
		t.Errorf("disposition = %q", disposition)
	}

	body, _ := io.ReadAll(response.Body)
	text := string(body)
	if !strings.Contains(text, "[Jan 02 15:04] You:\nhello") {
		t.Errorf("missing user entry: %s", text)
	}
	if !strings.Contains(text, "[Jan 02 15:05] Assistant:\nhi there") {
		t.Errorf("missing assistant entry: %s", text)
	}
}

func TestChatTemperatureOverride(t *testing.T) {
	provider := &recordingProvider{stubProvider: stubProvider{reply: "ok"}}
	server, _ := newTestServer(t, provider)

	response, err := server.App().Test(jsonRequest("POST", "/api/chat", `{"message": "hi", "temperature": 0.2}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	io.Copy(io.Discard, response.Body)
	response.Body.Close()

	if provider.lastRequest.GenerationConfig == nil {
		t.Fatal("generation config not forwarded")
	}
	if got := provider.lastRequest.GenerationConfig.Temperature; got != 0.2 {
		t.Errorf("temperature = %v", got)
	}
}

// recordingProvider captures the last streamed request.
type recordingProvider struct {
	stubProvider
	lastRequest ai.ChatRequest
}

func (p *recordingProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.lastRequest = request
	return p.stubProvider.StreamMessage(ctx, request)
}

func TestEvaluateEndpoint(t *testing.T) {
	provider := &stubProvider{reply: "Decent essay.\nScore: 7/10"}
	server, _ := newTestServer(t, provider)

	response, err := server.App().Test(jsonRequest("POST", "/api/evaluate", `{"essay": "AI will change everything."}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}

	var result struct {
		Scores       []int   `json:"individual_scores"`
		AverageScore float64 `json:"avg_score"`
	}
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(result.Scores) != 3 || result.AverageScore != 7.0 {
		t.Errorf("result = %+v", result)
	}
}
