package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/ssparihar/essayflow/core/client"
)

// NodeStatus represents the lifecycle status of a node during graph execution.
type NodeStatus string

const (
	// NodePending indicates the node has not started execution yet.
	NodePending NodeStatus = "pending"

	// NodeRunning indicates the node is currently executing.
	NodeRunning NodeStatus = "running"

	// NodeCompleted indicates the node has finished execution successfully.
	NodeCompleted NodeStatus = "completed"

	// NodeFailed indicates the node encountered an error during execution.
	NodeFailed NodeStatus = "failed"

	// NodeSkipped indicates the node was skipped because a dependency failed
	// or an edge condition evaluated to false.
	NodeSkipped NodeStatus = "skipped"
)

// ErrorStrategy defines how the graph handles errors when nodes fail during
// parallel execution within the same level.
type ErrorStrategy string

const (
	// ErrorStrategyFailFast cancels all running nodes and stops graph execution
	// as soon as any node fails. This is the default strategy.
	ErrorStrategyFailFast ErrorStrategy = "fail_fast"

	// ErrorStrategyContinueOnError allows other nodes to continue executing
	// when one fails. Downstream nodes that depend on the failed node are
	// automatically skipped.
	ErrorStrategyContinueOnError ErrorStrategy = "continue_on_error"
)

// NodeResult contains the output produced by a node after execution.
// The Output field must be JSON-serializable when using an external
// StateProvider for persistence.
type NodeResult struct {
	// Output is the data produced by the node.
	Output any

	// Error records the execution error, if the node failed.
	Error error

	// Duration is the wall-clock time the node took to execute.
	Duration time.Duration

	// Metadata contains arbitrary key-value pairs such as token counts or
	// the extracted score a node parsed from model output.
	Metadata map[string]any
}

// NodeInput contains all the data available to a node during execution.
type NodeInput struct {
	// UpstreamResults maps each upstream node ID to its execution result.
	// Only completed upstream nodes appear in this map.
	UpstreamResults map[string]*NodeResult

	// SharedState provides thread-safe access to state shared across all nodes.
	SharedState StateProvider

	// Params contains node-specific parameters set at construction time
	// via WithNodeParams.
	Params map[string]any

	// Client is the LLM client for this node: either the node-specific
	// client set via WithNodeClient, or the graph's default client.
	Client *client.Client
}

// NodeExecutor is the interface that every graph node must implement.
// It defines the processing logic for a single step in the workflow.
//
// Implementations should use input.Client for LLM interactions, read
// upstream results from input.UpstreamResults, use input.SharedState for
// cross-node data sharing, and return a NodeResult with Output populated.
type NodeExecutor interface {
	Execute(ctx context.Context, input *NodeInput) (*NodeResult, error)
}

// NodeExecutorFunc is an adapter that allows using an ordinary function as a
// NodeExecutor.
type NodeExecutorFunc func(ctx context.Context, input *NodeInput) (*NodeResult, error)

// Execute calls the underlying function, satisfying the NodeExecutor interface.
func (executorFunc NodeExecutorFunc) Execute(ctx context.Context, input *NodeInput) (*NodeResult, error) {
	return executorFunc(ctx, input)
}

// EdgeCondition determines whether an edge should be traversed during
// execution. It receives the result of the source node and the current
// shared state. A nil EdgeCondition means the edge is always traversed.
type EdgeCondition func(ctx context.Context, result *NodeResult, state StateProvider) bool

// node represents a single processing step in the graph. It is created
// internally by the GraphBuilder.
type node struct {
	id       string
	executor NodeExecutor

	// nodeClient overrides the graph's default client for this node.
	nodeClient *client.Client

	// params contains node-specific parameters accessible via NodeInput.Params.
	params map[string]any

	// timeout is the maximum duration allowed for this node's execution.
	// Zero means no node-specific timeout.
	timeout time.Duration

	// dependencies lists the IDs of nodes that must complete before this node
	// can execute. Populated during Build() from the graph edges.
	dependencies []string
}

// edge represents a directed connection between two nodes in the graph.
type edge struct {
	from      string
	to        string
	condition EdgeCondition
}

// graphConfig holds the configuration for a Graph, populated by Options.
type graphConfig struct {
	maxConcurrency   int
	executionTimeout time.Duration
	errorStrategy    ErrorStrategy
	outputNodeID     string
	stateProvider    StateProvider
	logger           *slog.Logger
}

// Graph represents a validated, executable directed acyclic graph of LLM
// processing steps. It is generic over T, the type of the final output
// produced by the designated output node.
//
// A Graph is created via GraphBuilder[T].Build(), which validates the graph
// structure and computes the topological ordering.
//
// A Graph is safe for sequential re-execution but not for concurrent
// Execute() calls on the same instance, because node statuses are mutated
// during execution.
type Graph[T any] struct {
	defaultClient *client.Client
	nodes         map[string]*node
	edges         []*edge

	// levels contains node IDs grouped by topological level. Level 0 nodes
	// have no dependencies; level N nodes depend only on nodes in levels < N.
	levels [][]string

	topologicalOrder []string
	outputNodeID     string
	config           *graphConfig
}
