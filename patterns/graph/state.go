package graph

import (
	"context"
	"sync"
)

// StateProvider defines the interface for graph state persistence.
// It manages both shared state (arbitrary key-value data accessible to all
// nodes) and graph execution state (node statuses and results).
//
// The default implementation is InMemoryStateProvider. Implement this
// interface to persist state to a database or distributed cache, which
// enables resuming partially completed graphs and distributed execution.
//
// Implementations must be safe for concurrent use by multiple goroutines,
// as nodes at the same level execute in parallel.
type StateProvider interface {
	// Get retrieves a value from the shared state by key.
	// Returns the value, a boolean indicating whether the key exists, and any error.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set writes a value to the shared state under the given key,
	// overwriting any existing value.
	Set(ctx context.Context, key string, value any) error

	// GetAll retrieves a copy of the entire shared state.
	GetAll(ctx context.Context) (map[string]any, error)

	// GetNodeStatus retrieves the execution status of a node by its ID.
	// Returns NodePending if the node has not been registered yet.
	GetNodeStatus(ctx context.Context, nodeID string) (NodeStatus, error)

	// SetNodeStatus updates the execution status of a node.
	SetNodeStatus(ctx context.Context, nodeID string, status NodeStatus) error

	// GetNodeResult retrieves the execution result of a node.
	// Returns nil if the node has not completed yet.
	GetNodeResult(ctx context.Context, nodeID string) (*NodeResult, error)

	// SetNodeResult stores the execution result of a node.
	SetNodeResult(ctx context.Context, nodeID string, result *NodeResult) error
}

// InMemoryStateProvider is the default StateProvider implementation.
// It stores all state in memory using sync.RWMutex for thread safety.
// State is lost when the process exits.
type InMemoryStateProvider struct {
	mu          sync.RWMutex
	data        map[string]any
	nodeStatus  map[string]NodeStatus
	nodeResults map[string]*NodeResult
}

var _ StateProvider = (*InMemoryStateProvider)(nil)

// NewInMemoryStateProvider creates a new in-memory state provider with
// optional initial shared state. If initial is nil, an empty state is created.
func NewInMemoryStateProvider(initial map[string]any) *InMemoryStateProvider {
	data := make(map[string]any)
	for key, value := range initial {
		data[key] = value
	}

	return &InMemoryStateProvider{
		data:        data,
		nodeStatus:  make(map[string]NodeStatus),
		nodeResults: make(map[string]*NodeResult),
	}
}

// Get retrieves a value from the shared state by key.
func (provider *InMemoryStateProvider) Get(_ context.Context, key string) (any, bool, error) {
	provider.mu.RLock()
	defer provider.mu.RUnlock()

	value, exists := provider.data[key]
	return value, exists, nil
}

// Set writes a value to the shared state under the given key.
func (provider *InMemoryStateProvider) Set(_ context.Context, key string, value any) error {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	provider.data[key] = value
	return nil
}

// GetAll retrieves the entire shared state as a copy of the internal map.
func (provider *InMemoryStateProvider) GetAll(_ context.Context) (map[string]any, error) {
	provider.mu.RLock()
	defer provider.mu.RUnlock()

	dataCopy := make(map[string]any, len(provider.data))
	for key, value := range provider.data {
		dataCopy[key] = value
	}
	return dataCopy, nil
}

// GetNodeStatus retrieves the execution status of a node.
// Returns NodePending if the node has not been registered.
func (provider *InMemoryStateProvider) GetNodeStatus(_ context.Context, nodeID string) (NodeStatus, error) {
	provider.mu.RLock()
	defer provider.mu.RUnlock()

	status, exists := provider.nodeStatus[nodeID]
	if !exists {
		return NodePending, nil
	}
	return status, nil
}

// SetNodeStatus updates the execution status of a node.
func (provider *InMemoryStateProvider) SetNodeStatus(_ context.Context, nodeID string, status NodeStatus) error {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	provider.nodeStatus[nodeID] = status
	return nil
}

// GetNodeResult retrieves the execution result of a node.
func (provider *InMemoryStateProvider) GetNodeResult(_ context.Context, nodeID string) (*NodeResult, error) {
	provider.mu.RLock()
	defer provider.mu.RUnlock()

	result, exists := provider.nodeResults[nodeID]
	if !exists {
		return nil, nil
	}
	return result, nil
}

// SetNodeResult stores the execution result of a node.
func (provider *InMemoryStateProvider) SetNodeResult(_ context.Context, nodeID string, result *NodeResult) error {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	provider.nodeResults[nodeID] = result
	return nil
}

// initializeNodes resets all node IDs to NodePending and clears their
// results. Called during execution initialization so a graph can be re-run
// without an explicit Reset().
func (provider *InMemoryStateProvider) initializeNodes(nodeIDs []string) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	for _, nodeID := range nodeIDs {
		provider.nodeStatus[nodeID] = NodePending
		delete(provider.nodeResults, nodeID)
	}
}
