package evaluate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/providers/ai"
)

// scriptedProvider answers each prompt according to its content, so the
// three dimension calls, the aggregation call, and the combined fallback can
// all be told apart.
type scriptedProvider struct {
	failDimensions bool
	failEverything bool
	omitScores     bool
}

func (p *scriptedProvider) SendMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.failEverything {
		return nil, errors.New("provider unavailable")
	}

	prompt := request.Messages[len(request.Messages)-1].Content

	switch {
	case strings.Contains(prompt, "Based on the following feedback"):
		return &ai.ChatResponse{Content: "Overall a promising essay with uneven execution."}, nil

	case strings.Contains(prompt, "Provide feedback on language, analysis, and clarity"):
		return &ai.ChatResponse{Content: "Combined evaluation: decent essay overall."}, nil

	case p.failDimensions:
		return nil, errors.New("dimension call rejected")

	case strings.Contains(prompt, "depth of analysis"):
		return &ai.ChatResponse{Content: p.withScore("Analysis is shallow in places.", 6)}, nil

	case strings.Contains(prompt, "clarity of thought"):
		return &ai.ChatResponse{Content: p.withScore("Arguments flow logically.", 8)}, nil

	case strings.Contains(prompt, "language"):
		return &ai.ChatResponse{Content: p.withScore("Grammar needs work.", 7)}, nil

	default:
		return nil, errors.New("unexpected prompt: " + prompt)
	}
}

func (p *scriptedProvider) withScore(feedback string, score int) string {
	if p.omitScores {
		return feedback
	}
	return fmt.Sprintf("%s\nScore: %d/10", feedback, score)
}

func (p *scriptedProvider) WithAPIKey(string) ai.Provider           { return p }
func (p *scriptedProvider) WithBaseURL(string) ai.Provider          { return p }
func (p *scriptedProvider) WithHTTPClient(*http.Client) ai.Provider { return p }

func newEvaluator(t *testing.T, provider ai.Provider) *Evaluator {
	t.Helper()
	c, err := client.New(provider)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	return New(c)
}

const sampleEssay = "AI will change everything. India must prepare carefully."

func TestEvaluateAllDimensions(t *testing.T) {
	evaluator := newEvaluator(t, &scriptedProvider{})

	result, err := evaluator.Evaluate(context.Background(), sampleEssay)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Fallback {
		t.Error("unexpected fallback")
	}
	if !strings.Contains(result.LanguageFeedback, "Grammar") {
		t.Errorf("language feedback = %q", result.LanguageFeedback)
	}
	if !strings.Contains(result.AnalysisFeedback, "shallow") {
		t.Errorf("analysis feedback = %q", result.AnalysisFeedback)
	}
	if !strings.Contains(result.ClarityFeedback, "logically") {
		t.Errorf("clarity feedback = %q", result.ClarityFeedback)
	}
	if !strings.Contains(result.OverallFeedback, "Overall") {
		t.Errorf("overall feedback = %q", result.OverallFeedback)
	}

	// Completion order varies across runs; compare as a sorted set.
	scores := append([]int(nil), result.Scores...)
	sort.Ints(scores)
	if len(scores) != 3 || scores[0] != 6 || scores[1] != 7 || scores[2] != 8 {
		t.Errorf("scores = %v", result.Scores)
	}

	if result.AverageScore != 7.0 {
		t.Errorf("average = %v", result.AverageScore)
	}
}

func TestEvaluateDefaultsMissingScores(t *testing.T) {
	evaluator := newEvaluator(t, &scriptedProvider{omitScores: true})

	result, err := evaluator.Evaluate(context.Background(), sampleEssay)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(result.Scores) != 3 {
		t.Fatalf("scores = %v", result.Scores)
	}
	for _, score := range result.Scores {
		if score != 5 {
			t.Errorf("missing score line must default to 5, got %v", result.Scores)
		}
	}
	if result.AverageScore != 5.0 {
		t.Errorf("average = %v", result.AverageScore)
	}
}

func TestEvaluateFallsBackToCombinedRequest(t *testing.T) {
	evaluator := newEvaluator(t, &scriptedProvider{failDimensions: true})

	result, err := evaluator.Evaluate(context.Background(), sampleEssay)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !result.Fallback {
		t.Error("expected fallback result")
	}
	if !strings.Contains(result.OverallFeedback, "Combined evaluation") {
		t.Errorf("overall feedback = %q", result.OverallFeedback)
	}
	if len(result.Scores) != 0 || result.AverageScore != 0.0 {
		t.Errorf("fallback must not carry dimension scores: %+v", result)
	}
}

func TestEvaluateErrorWhenFallbackFails(t *testing.T) {
	evaluator := newEvaluator(t, &scriptedProvider{failEverything: true})

	_, err := evaluator.Evaluate(context.Background(), sampleEssay)
	if err == nil {
		t.Fatal("expected error when both paths fail")
	}
}

func TestEvaluateRejectsEmptyEssay(t *testing.T) {
	evaluator := newEvaluator(t, &scriptedProvider{})

	_, err := evaluator.Evaluate(context.Background(), "   \n ")
	if !errors.Is(err, ErrEmptyEssay) {
		t.Fatalf("expected ErrEmptyEssay, got %v", err)
	}
}
