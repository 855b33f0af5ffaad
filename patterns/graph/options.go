package graph

import (
	"log/slog"
	"time"

	"github.com/ssparihar/essayflow/core/client"
)

// Option is a functional option for configuring Graph behavior.
// Options are applied during GraphBuilder construction via NewGraphBuilder.
type Option func(*graphConfig)

// NodeOption is a functional option for configuring individual node behavior.
// Node options are applied via GraphBuilder.AddNode.
type NodeOption func(*node)

// EdgeOption is a functional option for configuring individual edge behavior.
// Edge options are applied via GraphBuilder.AddEdge.
type EdgeOption func(*edge)

// --- Graph Options ---

// WithMaxConcurrency limits the number of nodes that can execute in parallel
// within the same topological level. A value of 0 (default) means unlimited
// concurrency.
func WithMaxConcurrency(maxConcurrency int) Option {
	return func(config *graphConfig) {
		config.maxConcurrency = maxConcurrency
	}
}

// WithExecutionTimeout sets the maximum duration for the entire graph
// execution. A value of 0 (default) means no timeout.
func WithExecutionTimeout(timeout time.Duration) Option {
	return func(config *graphConfig) {
		config.executionTimeout = timeout
	}
}

// WithErrorStrategy sets the error handling strategy for the graph.
// The default is ErrorStrategyFailFast.
func WithErrorStrategy(strategy ErrorStrategy) Option {
	return func(config *graphConfig) {
		config.errorStrategy = strategy
	}
}

// WithOutputNode designates which node produces the final typed output T.
// By default, the last node in topological order is used.
func WithOutputNode(nodeID string) Option {
	return func(config *graphConfig) {
		config.outputNodeID = nodeID
	}
}

// WithStateProvider sets a custom StateProvider for graph state persistence.
// By default, an InMemoryStateProvider is used.
func WithStateProvider(provider StateProvider) Option {
	return func(config *graphConfig) {
		config.stateProvider = provider
	}
}

// WithLogger sets a structured logger for execution-level events (level
// starts, node completions, failures). By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(config *graphConfig) {
		config.logger = logger
	}
}

// --- Node Options ---

// WithNodeClient sets a node-specific LLM client that overrides the graph's
// default client. Use this when a node needs a different provider, model,
// or system prompt.
func WithNodeClient(nodeClient *client.Client) NodeOption {
	return func(nodeConfig *node) {
		nodeConfig.nodeClient = nodeClient
	}
}

// WithNodeParams sets key-value parameters passed to the node during
// execution via NodeInput.Params.
//
// Example:
//
//	builder.AddNode("evaluate_language", dimensionExecutor,
//	    graph.WithNodeParams(map[string]any{
//	        "dimension": "language",
//	    }),
//	)
func WithNodeParams(params map[string]any) NodeOption {
	return func(nodeConfig *node) {
		nodeConfig.params = params
	}
}

// WithNodeTimeout sets the maximum duration for this node's execution.
// A value of 0 (default) means no node-specific timeout.
func WithNodeTimeout(timeout time.Duration) NodeOption {
	return func(nodeConfig *node) {
		nodeConfig.timeout = timeout
	}
}

// --- Edge Options ---

// WithEdgeCondition sets a condition function on an edge. The condition is
// evaluated after the source node completes, using its result and the
// current shared state. A node is skipped only if ALL of its incoming edges
// have conditions that evaluate to false.
func WithEdgeCondition(condition EdgeCondition) EdgeOption {
	return func(edgeConfig *edge) {
		edgeConfig.condition = condition
	}
}
