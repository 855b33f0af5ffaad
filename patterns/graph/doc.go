// Package graph provides a generic directed-acyclic-graph workflow engine
// for multi-step LLM pipelines.
//
// A graph is built from named nodes and directed edges, validated at build
// time (unique IDs, existing endpoints, no cycles), then executed level by
// level: nodes with no unmet dependencies run in parallel, and each level
// forms a join barrier before the next one starts. The designated output
// node's result is parsed into the graph's type parameter.
//
// The essay evaluator is the canonical use: three dimension nodes fan out
// from the input, and an aggregation node joins their feedback.
//
//	g, err := graph.NewGraphBuilder[string](defaultClient).
//	    AddNode("evaluate_language", languageExecutor).
//	    AddNode("evaluate_analysis", analysisExecutor).
//	    AddNode("final_evaluation", aggregateExecutor).
//	    AddEdge("evaluate_language", "final_evaluation").
//	    AddEdge("evaluate_analysis", "final_evaluation").
//	    Build()
package graph
