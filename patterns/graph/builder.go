package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ssparihar/essayflow/core/client"
)

// GraphBuilder constructs a validated Graph[T] using a fluent API.
// Nodes and edges are added incrementally, and Build() performs structural
// validation including cycle detection via Kahn's algorithm.
//
// The builder enforces:
//   - Node IDs must be unique
//   - Edge endpoints must reference existing nodes
//   - The graph must be acyclic
//   - If specified, the output node must exist
//
// Example:
//
//	g, err := graph.NewGraphBuilder[string](defaultClient).
//	    AddNode("evaluate_language", languageExecutor).
//	    AddNode("final_evaluation", aggregateExecutor).
//	    AddEdge("evaluate_language", "final_evaluation").
//	    Build()
type GraphBuilder[T any] struct {
	defaultClient *client.Client
	config        *graphConfig
	nodes         map[string]*node
	edges         []*edge

	// nodeOrder preserves node insertion order for deterministic level
	// ordering when no topological constraints distinguish nodes.
	nodeOrder []string

	// buildErrors accumulates validation errors from AddNode/AddEdge and is
	// reported when Build() is called.
	buildErrors []error
}

// NewGraphBuilder creates a new GraphBuilder for constructing a Graph[T].
// The defaultClient is used by all nodes that do not set a node-specific
// client override.
func NewGraphBuilder[T any](defaultClient *client.Client, opts ...Option) *GraphBuilder[T] {
	config := &graphConfig{
		errorStrategy: ErrorStrategyFailFast,
	}

	for _, opt := range opts {
		opt(config)
	}

	return &GraphBuilder[T]{
		defaultClient: defaultClient,
		config:        config,
		nodes:         make(map[string]*node),
		edges:         make([]*edge, 0),
		nodeOrder:     make([]string, 0),
		buildErrors:   make([]error, 0),
	}
}

// AddNode registers a processing node with the given unique ID and executor.
// Node options (WithNodeClient, WithNodeParams, WithNodeTimeout) customize
// individual node behavior.
//
// Returns the builder for method chaining. Duplicate IDs, empty IDs, and nil
// executors are recorded as build errors and reported at Build() time.
func (builder *GraphBuilder[T]) AddNode(nodeID string, executor NodeExecutor, opts ...NodeOption) *GraphBuilder[T] {
	if nodeID == "" {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node ID must not be empty"))
		return builder
	}

	if executor == nil {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("executor must not be nil for node %q", nodeID))
		return builder
	}

	if _, exists := builder.nodes[nodeID]; exists {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("duplicate node ID %q", nodeID))
		return builder
	}

	graphNode := &node{
		id:       nodeID,
		executor: executor,
	}

	for _, opt := range opts {
		opt(graphNode)
	}

	builder.nodes[nodeID] = graphNode
	builder.nodeOrder = append(builder.nodeOrder, nodeID)

	return builder
}

// AddEdge creates a directed edge from one node to another, indicating that
// the source node must complete before the target node can execute.
//
// Returns the builder for method chaining. Invalid endpoints are recorded as
// build errors and reported at Build() time.
func (builder *GraphBuilder[T]) AddEdge(from, to string, opts ...EdgeOption) *GraphBuilder[T] {
	if from == "" || to == "" {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("edge endpoints must not be empty (from=%q, to=%q)", from, to))
		return builder
	}

	if from == to {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("self-loop detected: node %q cannot have an edge to itself", from))
		return builder
	}

	graphEdge := &edge{
		from: from,
		to:   to,
	}

	for _, opt := range opts {
		opt(graphEdge)
	}

	builder.edges = append(builder.edges, graphEdge)

	return builder
}

// Build validates the graph structure and produces an executable Graph[T].
// On success, it computes the topological ordering and level assignment.
func (builder *GraphBuilder[T]) Build() (*Graph[T], error) {
	if len(builder.buildErrors) > 0 {
		return nil, fmt.Errorf("graph build errors: %w", errors.Join(builder.buildErrors...))
	}

	if len(builder.nodes) == 0 {
		return nil, fmt.Errorf("graph must contain at least one node")
	}

	if err := builder.validateEdges(); err != nil {
		return nil, err
	}

	inDegree, adjacency := builder.buildAdjacency()

	topologicalOrder, levels, err := kahnTopologicalSort(inDegree, adjacency, builder.nodeOrder)
	if err != nil {
		return nil, err
	}

	builder.populateDependencies()

	outputNodeID, err := builder.resolveOutputNode(topologicalOrder)
	if err != nil {
		return nil, err
	}

	if builder.config.stateProvider == nil {
		builder.config.stateProvider = NewInMemoryStateProvider(nil)
	}

	return &Graph[T]{
		defaultClient:    builder.defaultClient,
		nodes:            builder.nodes,
		edges:            builder.edges,
		levels:           levels,
		topologicalOrder: topologicalOrder,
		outputNodeID:     outputNodeID,
		config:           builder.config,
	}, nil
}

// validateEdges checks that all edge endpoints reference existing nodes
// and that there are no duplicate edges.
func (builder *GraphBuilder[T]) validateEdges() error {
	edgeSet := make(map[string]bool)

	for _, graphEdge := range builder.edges {
		if _, exists := builder.nodes[graphEdge.from]; !exists {
			return fmt.Errorf("edge references non-existent source node %q", graphEdge.from)
		}
		if _, exists := builder.nodes[graphEdge.to]; !exists {
			return fmt.Errorf("edge references non-existent target node %q", graphEdge.to)
		}

		edgeKey := graphEdge.from + "->" + graphEdge.to
		if edgeSet[edgeKey] {
			return fmt.Errorf("duplicate edge from %q to %q", graphEdge.from, graphEdge.to)
		}
		edgeSet[edgeKey] = true
	}

	return nil
}

// buildAdjacency constructs the in-degree map and adjacency list from the
// registered nodes and edges. Every node starts with in-degree 0.
func (builder *GraphBuilder[T]) buildAdjacency() (map[string]int, map[string][]string) {
	inDegree := make(map[string]int, len(builder.nodes))
	adjacency := make(map[string][]string, len(builder.nodes))

	for nodeID := range builder.nodes {
		inDegree[nodeID] = 0
		adjacency[nodeID] = make([]string, 0)
	}

	for _, graphEdge := range builder.edges {
		adjacency[graphEdge.from] = append(adjacency[graphEdge.from], graphEdge.to)
		inDegree[graphEdge.to]++
	}

	return inDegree, adjacency
}

// populateDependencies fills each node's dependencies list from the edges.
func (builder *GraphBuilder[T]) populateDependencies() {
	for _, graphEdge := range builder.edges {
		targetNode := builder.nodes[graphEdge.to]
		targetNode.dependencies = append(targetNode.dependencies, graphEdge.from)
	}
}

// resolveOutputNode determines which node produces the final output T.
// If WithOutputNode was used, validates that the node exists; otherwise the
// last node in topological order is used.
func (builder *GraphBuilder[T]) resolveOutputNode(topologicalOrder []string) (string, error) {
	if builder.config.outputNodeID != "" {
		if _, exists := builder.nodes[builder.config.outputNodeID]; !exists {
			return "", fmt.Errorf("output node %q does not exist in the graph", builder.config.outputNodeID)
		}
		return builder.config.outputNodeID, nil
	}

	return topologicalOrder[len(topologicalOrder)-1], nil
}

// kahnTopologicalSort performs Kahn's algorithm for topological sorting,
// simultaneously detecting cycles and computing topological levels.
// Within each level, nodes are sorted by insertion order so execution and
// output are deterministic.
func kahnTopologicalSort(inDegree map[string]int, adjacency map[string][]string, nodeOrder []string) ([]string, [][]string, error) {
	nodePosition := make(map[string]int, len(nodeOrder))
	for index, nodeID := range nodeOrder {
		nodePosition[nodeID] = index
	}

	currentLevel := make([]string, 0)
	for nodeID, degree := range inDegree {
		if degree == 0 {
			currentLevel = append(currentLevel, nodeID)
		}
	}

	sort.Slice(currentLevel, func(a, b int) bool {
		return nodePosition[currentLevel[a]] < nodePosition[currentLevel[b]]
	})

	topologicalOrder := make([]string, 0, len(inDegree))
	levels := make([][]string, 0)
	processedCount := 0

	for len(currentLevel) > 0 {
		levels = append(levels, currentLevel)
		topologicalOrder = append(topologicalOrder, currentLevel...)
		processedCount += len(currentLevel)

		nextLevel := make([]string, 0)

		for _, nodeID := range currentLevel {
			for _, neighbor := range adjacency[nodeID] {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					nextLevel = append(nextLevel, neighbor)
				}
			}
		}

		sort.Slice(nextLevel, func(a, b int) bool {
			return nodePosition[nextLevel[a]] < nodePosition[nextLevel[b]]
		})

		currentLevel = nextLevel
	}

	// Unprocessed nodes mean a cycle.
	if processedCount != len(inDegree) {
		cycleNodes := make([]string, 0)
		for nodeID, degree := range inDegree {
			if degree > 0 {
				cycleNodes = append(cycleNodes, nodeID)
			}
		}
		sort.Strings(cycleNodes)
		return nil, nil, fmt.Errorf("cycle detected in graph involving nodes: %v", cycleNodes)
	}

	return topologicalOrder, levels, nil
}
