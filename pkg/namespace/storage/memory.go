package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/backupkeeper/pkg/namespace"
)

// AnyNode matches every node ID in InjectFault.
const AnyNode = "*"

type memoryNode struct {
	id        string
	parentID  string
	name      string
	children  []string
	artifacts []string
}

type memoryArtifact struct {
	namespace.Artifact
	nodeID string
	data   []byte
}

type faultKey struct {
	operation string
	nodeID    string
}

// MemoryStore implements namespace.Backend with in-memory maps.
// It is intended for tests and dry runs; nothing survives the process.
//
// Faults can be injected per operation and node to exercise error paths.
type MemoryStore struct {
	nodes     map[string]*memoryNode
	artifacts map[string]*memoryArtifact
	faults    map[faultKey]error
	calls     map[string]int
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store containing only the root.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: map[string]*memoryNode{
			namespace.RootID: {id: namespace.RootID},
		},
		artifacts: make(map[string]*memoryArtifact),
		faults:    make(map[faultKey]error),
		calls:     make(map[string]int),
	}
}

// ListChildren returns the children of nodeID in creation order.
func (s *MemoryStore) ListChildren(ctx context.Context, nodeID string) ([]namespace.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx, namespace.OpListChildren, nodeID); err != nil {
		return nil, err
	}

	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
	}

	children := make([]namespace.Node, 0, len(node.children))
	for _, id := range node.children {
		children = append(children, namespace.Node{ID: id, DisplayName: s.nodes[id].name})
	}
	return children, nil
}

// CreateChild adds a child node under parentID.
func (s *MemoryStore) CreateChild(ctx context.Context, parentID, displayName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx, namespace.OpCreateChild, parentID); err != nil {
		return "", err
	}

	parent, ok := s.nodes[parentID]
	if !ok {
		return "", fmt.Errorf("node %q: %w", parentID, namespace.ErrNodeNotFound)
	}

	id := uuid.NewString()
	s.nodes[id] = &memoryNode{id: id, parentID: parentID, name: displayName}
	parent.children = append(parent.children, id)
	return id, nil
}

// ListArtifacts returns the artifacts of nodeID in upload order.
func (s *MemoryStore) ListArtifacts(ctx context.Context, nodeID string) ([]namespace.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx, namespace.OpListArtifacts, nodeID); err != nil {
		return nil, err
	}

	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
	}

	artifacts := make([]namespace.Artifact, 0, len(node.artifacts))
	for _, id := range node.artifacts {
		artifacts = append(artifacts, s.artifacts[id].Artifact)
	}
	return artifacts, nil
}

// DeleteArtifact removes an artifact. Unknown artifacts are ignored.
func (s *MemoryStore) DeleteArtifact(ctx context.Context, nodeID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx, namespace.OpDeleteArtifact, nodeID); err != nil {
		return err
	}

	artifact, ok := s.artifacts[artifactID]
	if !ok || artifact.nodeID != nodeID {
		return nil
	}

	node := s.nodes[nodeID]
	node.artifacts = remove(node.artifacts, artifactID)
	delete(s.artifacts, artifactID)
	return nil
}

// DeleteNode removes an empty node.
func (s *MemoryStore) DeleteNode(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx, namespace.OpDeleteNode, nodeID); err != nil {
		return err
	}

	if nodeID == namespace.RootID {
		return errors.New("the namespace root cannot be deleted")
	}

	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
	}
	if len(node.children) > 0 || len(node.artifacts) > 0 {
		return fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotEmpty)
	}

	parent := s.nodes[node.parentID]
	parent.children = remove(parent.children, nodeID)
	delete(s.nodes, nodeID)
	return nil
}

// PutArtifact stores the content of r as a new artifact under nodeID.
func (s *MemoryStore) PutArtifact(ctx context.Context, nodeID, name string, createdAt time.Time, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx, namespace.OpPutArtifact, nodeID); err != nil {
		return "", err
	}

	node, ok := s.nodes[nodeID]
	if !ok {
		return "", fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
	}

	id := uuid.NewString()
	s.artifacts[id] = &memoryArtifact{
		Artifact: namespace.Artifact{
			ID:        id,
			Name:      name,
			CreatedAt: createdAt,
			Size:      int64(len(data)),
		},
		nodeID: nodeID,
		data:   data,
	}
	node.artifacts = append(node.artifacts, id)
	return id, nil
}

// Close discards all content.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = map[string]*memoryNode{namespace.RootID: {id: namespace.RootID}}
	s.artifacts = make(map[string]*memoryArtifact)
	return nil
}

// enter counts the call and returns an injected fault or a context error.
// Callers hold s.mu.
func (s *MemoryStore) enter(ctx context.Context, operation, nodeID string) error {
	s.calls[operation]++

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.faults[faultKey{operation, nodeID}]; ok {
		return err
	}
	if err, ok := s.faults[faultKey{operation, AnyNode}]; ok {
		return err
	}
	return nil
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Helper methods for testing

// InjectFault makes every call of operation on nodeID fail with err.
// Use AnyNode to fail the operation for all nodes.
func (s *MemoryStore) InjectFault(operation, nodeID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey{operation, nodeID}] = err
}

// ClearFaults removes all injected faults.
func (s *MemoryStore) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[faultKey]error)
}

// Calls returns how many times operation was invoked.
func (s *MemoryStore) Calls(operation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[operation]
}

// NodeCount returns the number of nodes, excluding the root.
func (s *MemoryStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes) - 1
}

// ArtifactCount returns the number of stored artifacts.
func (s *MemoryStore) ArtifactCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// Content returns a copy of an artifact's bytes.
func (s *MemoryStore) Content(artifactID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.artifacts[artifactID]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(artifact.data))
	copy(out, artifact.data)
	return out, true
}
