package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/backupkeeper/pkg/namespace"
)

func TestMemoryStore(t *testing.T) {
	testBackend(t, NewMemoryStore())
}

func TestMemoryStore_InjectFault(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	nodeID, _ := s.CreateChild(ctx, namespace.RootID, "2024")
	boom := errors.New("boom")

	s.InjectFault(namespace.OpListArtifacts, nodeID, boom)
	if _, err := s.ListArtifacts(ctx, nodeID); !errors.Is(err, boom) {
		t.Errorf("Expected injected fault, got %v", err)
	}
	if _, err := s.ListArtifacts(ctx, namespace.RootID); err != nil {
		t.Errorf("Fault should only affect %s, got %v", nodeID, err)
	}

	s.InjectFault(namespace.OpCreateChild, AnyNode, boom)
	if _, err := s.CreateChild(ctx, nodeID, "03 March"); !errors.Is(err, boom) {
		t.Errorf("Expected wildcard fault, got %v", err)
	}

	s.ClearFaults()
	if _, err := s.ListArtifacts(ctx, nodeID); err != nil {
		t.Errorf("Expected faults cleared, got %v", err)
	}

	if got := s.Calls(namespace.OpListArtifacts); got != 3 {
		t.Errorf("Expected 3 list_artifacts calls, got %d", got)
	}
}

func TestMemoryStore_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemoryStore().ListChildren(ctx, namespace.RootID); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore_Content(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	nodeID, _ := s.CreateChild(ctx, namespace.RootID, "2024")
	id, _ := s.PutArtifact(ctx, nodeID, "a.sql", time.Now(), strings.NewReader("payload"))

	data, ok := s.Content(id)
	if !ok || string(data) != "payload" {
		t.Errorf("Content() = %q, %v", data, ok)
	}
	if s.NodeCount() != 1 || s.ArtifactCount() != 1 {
		t.Errorf("Unexpected counts: %d nodes, %d artifacts", s.NodeCount(), s.ArtifactCount())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if s.NodeCount() != 0 || s.ArtifactCount() != 0 {
		t.Error("Expected Close to discard content")
	}
}
