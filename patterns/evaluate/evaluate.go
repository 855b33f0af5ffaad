package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/core/parse"
	"github.com/ssparihar/essayflow/patterns/graph"
)

// Node IDs of the evaluation pipeline.
const (
	nodeLanguage = "evaluate_language"
	nodeAnalysis = "evaluate_analysis"
	nodeThought  = "evaluate_thought"
	nodeFinal    = "final_evaluation"
)

// Dimension labels as they appear in the prompts.
const (
	dimensionLanguage = "language"
	dimensionAnalysis = "depth of analysis"
	dimensionThought  = "clarity of thought"
)

// ErrEmptyEssay is returned when Evaluate is called with a blank essay.
var ErrEmptyEssay = errors.New("evaluate: essay must not be empty")

// Result holds the complete outcome of an essay evaluation.
type Result struct {
	// Per-dimension feedback texts, each typically ending in a score line.
	LanguageFeedback string `json:"language_feedback"`
	AnalysisFeedback string `json:"analysis_feedback"`
	ClarityFeedback  string `json:"clarity_feedback"`

	// OverallFeedback is the model's summary of the three dimension feedbacks,
	// or the single combined response when the pipeline fell back.
	OverallFeedback string `json:"overall_feedback"`

	// Scores contains the extracted dimension scores in completion order,
	// which varies run to run because the dimensions execute concurrently.
	Scores []int `json:"individual_scores"`

	// AverageScore is the arithmetic mean of Scores, 0.0 when empty.
	AverageScore float64 `json:"avg_score"`

	// Fallback is true when the parallel pipeline failed and the result came
	// from a single combined request instead.
	Fallback bool `json:"fallback,omitempty"`
}

// Evaluator runs the three-dimension essay evaluation pipeline.
// It is safe for concurrent use; each Evaluate call builds its own graph.
type Evaluator struct {
	client *client.Client
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets a structured logger for pipeline events. Logging is
// disabled by default.
func WithLogger(logger *slog.Logger) Option {
	return func(evaluator *Evaluator) {
		evaluator.logger = logger
	}
}

// New creates an Evaluator backed by the given client.
func New(evaluationClient *client.Client, opts ...Option) *Evaluator {
	evaluator := &Evaluator{
		client: evaluationClient,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(evaluator)
	}

	return evaluator
}

// Evaluate scores the essay across all three dimensions concurrently and
// aggregates the feedback. If any part of the parallel pipeline fails, it
// falls back to a single combined evaluation request; only when that also
// fails is an error returned.
func (e *Evaluator) Evaluate(ctx context.Context, essay string) (*Result, error) {
	if strings.TrimSpace(essay) == "" {
		return nil, ErrEmptyEssay
	}

	result := &Result{}

	// Guards the result while the three dimension nodes write concurrently.
	var mu sync.Mutex

	dimensionNode := func(dimension string, store func(feedback string)) graph.NodeExecutorFunc {
		return func(ctx context.Context, input *graph.NodeInput) (*graph.NodeResult, error) {
			response, err := input.Client.SendMessage(ctx, dimensionPrompt(dimension, essay))
			if err != nil {
				return nil, fmt.Errorf("evaluate %s: %w", dimension, err)
			}

			score := parse.ExtractScore(response.Content)

			mu.Lock()
			store(response.Content)
			result.Scores = append(result.Scores, score)
			mu.Unlock()

			return &graph.NodeResult{
				Output:   response.Content,
				Metadata: map[string]any{"score": score},
			}, nil
		}
	}

	finalNode := graph.NodeExecutorFunc(func(ctx context.Context, input *graph.NodeInput) (*graph.NodeResult, error) {
		mu.Lock()
		prompt := overallPrompt(result.LanguageFeedback, result.AnalysisFeedback, result.ClarityFeedback)
		mu.Unlock()

		response, err := input.Client.SendMessage(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("final evaluation: %w", err)
		}

		mu.Lock()
		result.OverallFeedback = response.Content
		result.AverageScore = averageOf(result.Scores)
		mu.Unlock()

		return &graph.NodeResult{Output: response.Content}, nil
	})

	pipeline, err := graph.NewGraphBuilder[string](e.client,
		graph.WithOutputNode(nodeFinal),
		graph.WithLogger(e.logger),
	).
		AddNode(nodeLanguage, dimensionNode(dimensionLanguage, func(feedback string) { result.LanguageFeedback = feedback })).
		AddNode(nodeAnalysis, dimensionNode(dimensionAnalysis, func(feedback string) { result.AnalysisFeedback = feedback })).
		AddNode(nodeThought, dimensionNode(dimensionThought, func(feedback string) { result.ClarityFeedback = feedback })).
		AddNode(nodeFinal, finalNode).
		AddEdge(nodeLanguage, nodeFinal).
		AddEdge(nodeAnalysis, nodeFinal).
		AddEdge(nodeThought, nodeFinal).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation pipeline: %w", err)
	}

	if _, execErr := pipeline.Execute(ctx, nil); execErr != nil {
		e.logger.Warn("parallel evaluation failed, falling back to combined request",
			"error", execErr)
		return e.evaluateCombined(ctx, essay, execErr)
	}

	return result, nil
}

// evaluateCombined is the degraded path: one request covering all three
// dimensions at once. Scores stay empty because the combined response does
// not carry per-dimension score lines.
func (e *Evaluator) evaluateCombined(ctx context.Context, essay string, pipelineErr error) (*Result, error) {
	response, err := e.client.SendMessage(ctx, combinedPrompt(essay))
	if err != nil {
		return nil, fmt.Errorf("combined evaluation failed (%w) after pipeline error: %w", err, pipelineErr)
	}

	return &Result{
		OverallFeedback: response.Content,
		Fallback:        true,
	}, nil
}

// dimensionPrompt asks for feedback on one quality dimension, instructing
// the model to end with the score line the extractor looks for.
func dimensionPrompt(dimension, essay string) string {
	return fmt.Sprintf(`Evaluate the %s quality of the following essay and provide feedback.
Also assign a score out of 10 at the end with "Score: X/10".

ESSAY:
%s

Please provide detailed feedback focusing on %s aspects.`, dimension, essay, dimension)
}

// overallPrompt asks for a summary of the three dimension feedbacks.
func overallPrompt(languageFeedback, analysisFeedback, clarityFeedback string) string {
	return fmt.Sprintf(`Based on the following feedback, create a summarized overall feedback.

Language feedback: %s
Depth of analysis feedback: %s
Clarity of thought feedback: %s

Please provide a comprehensive overall evaluation and final score assessment.`,
		languageFeedback, analysisFeedback, clarityFeedback)
}

// combinedPrompt covers all dimensions in a single request.
func combinedPrompt(essay string) string {
	return fmt.Sprintf("Evaluate this essay:\n\n%s\n\nProvide feedback on language, analysis, and clarity with scores.", essay)
}

// averageOf returns the arithmetic mean of scores, 0.0 for an empty slice.
func averageOf(scores []int) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	total := 0
	for _, score := range scores {
		total += score
	}
	return float64(total) / float64(len(scores))
}
