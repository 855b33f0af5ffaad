// Command evaluate scores an essay across three dimensions and prints the
// feedback. The essay is read from the file given as the first argument, or
// from stdin when no argument is given.
//
// Requires GROQ_API_KEY (a .env file is loaded when present).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/ssparihar/essayflow/core/client"
	"github.com/ssparihar/essayflow/core/client/middleware"
	"github.com/ssparihar/essayflow/patterns/evaluate"
	"github.com/ssparihar/essayflow/providers/ai/groq"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	essay, err := readEssay()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read essay: %v\n", err)
		os.Exit(1)
	}

	evaluationClient, err := client.New(
		groq.New(),
		client.WithMiddlewares(
			middleware.NewTimeoutMiddleware(90*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
		os.Exit(1)
	}

	evaluator := evaluate.New(evaluationClient, evaluate.WithLogger(logger))

	result, err := evaluator.Evaluate(context.Background(), essay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluation failed: %v\n", err)
		os.Exit(1)
	}

	if result.Fallback {
		fmt.Println("=== Evaluation (combined) ===")
		fmt.Println(result.OverallFeedback)
		return
	}

	fmt.Println("=== Language ===")
	fmt.Println(result.LanguageFeedback)
	fmt.Println()
	fmt.Println("=== Depth of Analysis ===")
	fmt.Println(result.AnalysisFeedback)
	fmt.Println()
	fmt.Println("=== Clarity of Thought ===")
	fmt.Println(result.ClarityFeedback)
	fmt.Println()
	fmt.Println("=== Overall ===")
	fmt.Println(result.OverallFeedback)
	fmt.Println()
	fmt.Printf("Individual scores: %v\n", result.Scores)
	fmt.Printf("Average score: %.1f/10.0\n", result.AverageScore)
}

func readEssay() (string, error) {
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
