package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ssparihar/essayflow/core/parse"
)

// Execute runs the graph by executing nodes in topological order, with nodes
// at the same level running in parallel (subject to maxConcurrency). Each
// level is a join barrier: no node of level N+1 starts before every node of
// level N has finished.
//
// The initialState map is loaded into the StateProvider's shared state before
// execution begins. Nodes can read and write shared state during execution.
//
// On success the output node's result is parsed as T. Execute is NOT safe
// for concurrent use on the same Graph instance.
func (graph *Graph[T]) Execute(ctx context.Context, initialState map[string]any) (*T, error) {
	executionStart := time.Now()
	logger := graph.logger()

	stateProvider := graph.config.stateProvider
	if err := graph.initializeState(ctx, stateProvider, initialState); err != nil {
		return nil, fmt.Errorf("failed to initialize graph state: %w", err)
	}

	if graph.config.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, graph.config.executionTimeout)
		defer cancel()
	}

	logger.Debug("graph execution started",
		"nodes", len(graph.nodes),
		"levels", len(graph.levels))

	if executionError := graph.executeLevels(ctx, stateProvider); executionError != nil {
		logger.Error("graph execution failed",
			"error", executionError,
			"duration", time.Since(executionStart))
		return nil, fmt.Errorf("graph execution failed: %w", executionError)
	}

	parsedResult, parseError := graph.parseOutputResult(ctx, stateProvider)
	if parseError != nil {
		return nil, fmt.Errorf("failed to parse output from node %q: %w", graph.outputNodeID, parseError)
	}

	logger.Debug("graph execution completed",
		"duration", time.Since(executionStart))

	return parsedResult, nil
}

// Reset clears the graph's execution state, allowing it to be re-executed.
// All node statuses are reset to NodePending and node results are cleared.
func (graph *Graph[T]) Reset(ctx context.Context, initialState map[string]any) error {
	return graph.initializeState(ctx, graph.config.stateProvider, initialState)
}

// logger returns the configured logger, or a no-op logger when none was set.
func (graph *Graph[T]) logger() *slog.Logger {
	if graph.config.logger != nil {
		return graph.config.logger
	}
	return slog.New(slog.DiscardHandler)
}

// initializeState prepares the state provider for a new execution run.
func (graph *Graph[T]) initializeState(ctx context.Context, stateProvider StateProvider, initialState map[string]any) error {
	for key, value := range initialState {
		if err := stateProvider.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to set initial state key %q: %w", key, err)
		}
	}

	nodeIDs := make([]string, 0, len(graph.nodes))
	for nodeID := range graph.nodes {
		nodeIDs = append(nodeIDs, nodeID)
	}

	// Use the InMemoryStateProvider's batch method when available.
	if inMemoryProvider, isInMemory := stateProvider.(*InMemoryStateProvider); isInMemory {
		inMemoryProvider.initializeNodes(nodeIDs)
	} else {
		for _, nodeID := range nodeIDs {
			if err := stateProvider.SetNodeStatus(ctx, nodeID, NodePending); err != nil {
				return fmt.Errorf("failed to initialize node %q status: %w", nodeID, err)
			}
		}
	}

	return nil
}

// executeLevels iterates through topological levels and executes nodes at
// each level in parallel, respecting maxConcurrency and error strategy.
func (graph *Graph[T]) executeLevels(ctx context.Context, stateProvider StateProvider) error {
	for levelIndex, levelNodeIDs := range graph.levels {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled before level %d: %w", levelIndex, err)
		}

		readyNodes := graph.filterReadyNodes(ctx, levelNodeIDs, stateProvider)
		if len(readyNodes) == 0 {
			continue
		}

		if err := graph.executeLevel(ctx, readyNodes, stateProvider); err != nil {
			return err
		}
	}

	return nil
}

// filterReadyNodes determines which nodes at a given level should execute.
// A node is ready if all its dependencies completed successfully and at
// least one incoming edge is active.
func (graph *Graph[T]) filterReadyNodes(ctx context.Context, nodeIDs []string, stateProvider StateProvider) []string {
	readyNodes := make([]string, 0, len(nodeIDs))

	for _, nodeID := range nodeIDs {
		graphNode := graph.nodes[nodeID]

		allDependenciesMet := true
		anyDependencyFailed := false

		for _, depID := range graphNode.dependencies {
			depStatus, err := stateProvider.GetNodeStatus(ctx, depID)
			if err != nil {
				allDependenciesMet = false
				break
			}

			switch depStatus {
			case NodeCompleted:
				// Dependency satisfied.
			case NodeFailed, NodeSkipped:
				anyDependencyFailed = true
			default:
				allDependenciesMet = false
			}
		}

		if !allDependenciesMet {
			continue
		}

		if anyDependencyFailed {
			if setErr := stateProvider.SetNodeStatus(ctx, nodeID, NodeSkipped); setErr != nil {
				continue
			}
			graph.logger().Debug("node skipped", "node", nodeID, "reason", "upstream dependency failed or skipped")
			continue
		}

		if !graph.evaluateEdgeConditions(ctx, nodeID, stateProvider) {
			if setErr := stateProvider.SetNodeStatus(ctx, nodeID, NodeSkipped); setErr != nil {
				continue
			}
			graph.logger().Debug("node skipped", "node", nodeID, "reason", "edge conditions not satisfied")
			continue
		}

		readyNodes = append(readyNodes, nodeID)
	}

	return readyNodes
}

// evaluateEdgeConditions checks whether a node should execute based on its
// incoming edge conditions. A node executes if at least one incoming edge
// has no condition or its condition returns true. Root nodes always execute.
func (graph *Graph[T]) evaluateEdgeConditions(ctx context.Context, nodeID string, stateProvider StateProvider) bool {
	incomingEdges := make([]*edge, 0)
	for _, graphEdge := range graph.edges {
		if graphEdge.to == nodeID {
			incomingEdges = append(incomingEdges, graphEdge)
		}
	}

	if len(incomingEdges) == 0 {
		return true
	}

	for _, graphEdge := range incomingEdges {
		if graphEdge.condition == nil {
			return true
		}

		sourceResult, getErr := stateProvider.GetNodeResult(ctx, graphEdge.from)
		if getErr != nil {
			continue
		}
		if graphEdge.condition(ctx, sourceResult, stateProvider) {
			return true
		}
	}

	return false
}

// executeLevel runs all ready nodes at a topological level in parallel,
// respecting the maxConcurrency limit and the configured error strategy.
func (graph *Graph[T]) executeLevel(ctx context.Context, readyNodes []string, stateProvider StateProvider) error {
	var waitGroup sync.WaitGroup
	errorChannel := make(chan nodeExecutionError, len(readyNodes))

	// Cancellable context for fail-fast behavior.
	levelContext, cancelLevel := context.WithCancel(ctx)
	defer cancelLevel()

	var semaphore chan struct{}
	if graph.config.maxConcurrency > 0 {
		semaphore = make(chan struct{}, graph.config.maxConcurrency)
	}

	for _, nodeID := range readyNodes {
		waitGroup.Add(1)

		go func(executingNodeID string) {
			defer waitGroup.Done()

			if semaphore != nil {
				select {
				case semaphore <- struct{}{}:
					defer func() { <-semaphore }()
				case <-levelContext.Done():
					return
				}
			}

			if levelContext.Err() != nil {
				return
			}

			err := graph.executeNode(levelContext, executingNodeID, stateProvider)
			if err != nil {
				errorChannel <- nodeExecutionError{nodeID: executingNodeID, err: err}

				if graph.config.errorStrategy == ErrorStrategyFailFast {
					cancelLevel()
				}
			}
		}(nodeID)
	}

	waitGroup.Wait()
	close(errorChannel)

	var executionErrors []nodeExecutionError
	for nodeError := range errorChannel {
		executionErrors = append(executionErrors, nodeError)
	}

	if len(executionErrors) == 0 {
		return nil
	}

	if graph.config.errorStrategy == ErrorStrategyFailFast {
		firstError := executionErrors[0]
		return fmt.Errorf("node %q failed: %w", firstError.nodeID, firstError.err)
	}

	// Continue-on-error: failures are recorded in state, downstream nodes of
	// failed nodes will be skipped by filterReadyNodes.
	return nil
}

// nodeExecutionError pairs a node ID with its execution error.
type nodeExecutionError struct {
	nodeID string
	err    error
}

// executeNode runs a single node's executor with timeout and state management.
func (graph *Graph[T]) executeNode(ctx context.Context, nodeID string, stateProvider StateProvider) error {
	graphNode := graph.nodes[nodeID]
	logger := graph.logger()

	if err := stateProvider.SetNodeStatus(ctx, nodeID, NodeRunning); err != nil {
		return fmt.Errorf("failed to set node %q status to running: %w", nodeID, err)
	}

	nodeContext := ctx
	if graphNode.timeout > 0 {
		var cancel context.CancelFunc
		nodeContext, cancel = context.WithTimeout(nodeContext, graphNode.timeout)
		defer cancel()
	}

	nodeInput, err := graph.assembleNodeInput(nodeContext, graphNode, stateProvider)
	if err != nil {
		markNodeFailed(nodeContext, stateProvider, nodeID, err, 0)
		return fmt.Errorf("failed to assemble input for node %q: %w", nodeID, err)
	}

	nodeStart := time.Now()
	result, execError := graphNode.executor.Execute(nodeContext, nodeInput)
	executionDuration := time.Since(nodeStart)

	if execError != nil {
		markNodeFailed(nodeContext, stateProvider, nodeID, execError, executionDuration)
		logger.Warn("node failed", "node", nodeID, "error", execError, "duration", executionDuration)
		return fmt.Errorf("node %q execution failed: %w", nodeID, execError)
	}

	if result == nil {
		result = &NodeResult{}
	}

	result.Duration = executionDuration

	if err := stateProvider.SetNodeResult(nodeContext, nodeID, result); err != nil {
		return fmt.Errorf("failed to store result for node %q: %w", nodeID, err)
	}

	if err := stateProvider.SetNodeStatus(nodeContext, nodeID, NodeCompleted); err != nil {
		return fmt.Errorf("failed to set node %q status to completed: %w", nodeID, err)
	}

	logger.Debug("node completed", "node", nodeID, "duration", executionDuration)

	return nil
}

// assembleNodeInput creates the NodeInput for a node, gathering upstream
// results from the state provider and selecting the appropriate client.
func (graph *Graph[T]) assembleNodeInput(ctx context.Context, graphNode *node, stateProvider StateProvider) (*NodeInput, error) {
	upstreamResults := make(map[string]*NodeResult)
	for _, depID := range graphNode.dependencies {
		result, err := stateProvider.GetNodeResult(ctx, depID)
		if err != nil {
			return nil, fmt.Errorf("failed to get result for upstream node %q: %w", depID, err)
		}
		if result != nil {
			upstreamResults[depID] = result
		}
	}

	nodeClient := graph.defaultClient
	if graphNode.nodeClient != nil {
		nodeClient = graphNode.nodeClient
	}

	return &NodeInput{
		UpstreamResults: upstreamResults,
		SharedState:     stateProvider,
		Params:          graphNode.params,
		Client:          nodeClient,
	}, nil
}

// parseOutputResult extracts the output node's result and parses it as T.
// It first attempts a direct type assertion, then falls back to
// parse.ParseStringAs[T] for string outputs.
func (graph *Graph[T]) parseOutputResult(ctx context.Context, stateProvider StateProvider) (*T, error) {
	outputResult, err := stateProvider.GetNodeResult(ctx, graph.outputNodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get output node result: %w", err)
	}

	if outputResult == nil {
		return nil, fmt.Errorf("output node %q has no result", graph.outputNodeID)
	}

	if outputResult.Error != nil {
		return nil, fmt.Errorf("output node %q failed: %w", graph.outputNodeID, outputResult.Error)
	}

	if typedResult, isTargetType := outputResult.Output.(*T); isTargetType {
		return typedResult, nil
	}

	if typedResult, isTargetType := outputResult.Output.(T); isTargetType {
		return &typedResult, nil
	}

	outputString, isString := outputResult.Output.(string)
	if !isString {
		return nil, fmt.Errorf("output node %q produced non-string, non-%T output of type %T", graph.outputNodeID, *new(T), outputResult.Output)
	}

	parsedResult, parseError := parse.ParseStringAs[T](outputString)
	if parseError != nil {
		return nil, fmt.Errorf("failed to parse output as %T: %w", *new(T), parseError)
	}

	return &parsedResult, nil
}

// markNodeFailed is a best-effort helper that sets a node's status to
// NodeFailed and stores the failure result. State provider errors are
// ignored because the primary execution error takes precedence.
func markNodeFailed(ctx context.Context, stateProvider StateProvider, nodeID string, nodeError error, duration time.Duration) {
	_ = stateProvider.SetNodeStatus(ctx, nodeID, NodeFailed)  //nolint:errcheck
	_ = stateProvider.SetNodeResult(ctx, nodeID, &NodeResult{ //nolint:errcheck
		Error:    nodeError,
		Duration: duration,
	})
}
