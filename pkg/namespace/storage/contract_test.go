package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/backupkeeper/pkg/namespace"
)

// testBackend exercises the behavior every namespace.Backend must share.
func testBackend(t *testing.T, backend namespace.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("children keep creation order", func(t *testing.T) {
		yearID, err := backend.CreateChild(ctx, namespace.RootID, "2024")
		if err != nil {
			t.Fatalf("CreateChild() failed: %v", err)
		}
		for _, name := range []string{"03 March", "01 January", "02 February"} {
			if _, err := backend.CreateChild(ctx, yearID, name); err != nil {
				t.Fatalf("CreateChild(%q) failed: %v", name, err)
			}
		}

		months, err := backend.ListChildren(ctx, yearID)
		if err != nil {
			t.Fatalf("ListChildren() failed: %v", err)
		}
		if len(months) != 3 || months[0].DisplayName != "03 March" || months[2].DisplayName != "02 February" {
			t.Errorf("Unexpected children: %v", months)
		}

		roots, err := backend.ListChildren(ctx, namespace.RootID)
		if err != nil {
			t.Fatalf("ListChildren(root) failed: %v", err)
		}
		found := false
		for _, n := range roots {
			if n.ID == yearID {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected year node under root, got %v", roots)
		}
	})

	t.Run("artifacts round trip", func(t *testing.T) {
		nodeID, err := backend.CreateChild(ctx, namespace.RootID, "artifacts")
		if err != nil {
			t.Fatalf("CreateChild() failed: %v", err)
		}

		createdAt := time.Date(2024, time.March, 17, 2, 30, 0, 0, time.UTC)
		id, err := backend.PutArtifact(ctx, nodeID, "db_2024-03-17_02-30-00.sql", createdAt, strings.NewReader("-- dump\n"))
		if err != nil {
			t.Fatalf("PutArtifact() failed: %v", err)
		}

		artifacts, err := backend.ListArtifacts(ctx, nodeID)
		if err != nil {
			t.Fatalf("ListArtifacts() failed: %v", err)
		}
		if len(artifacts) != 1 {
			t.Fatalf("Expected 1 artifact, got %d", len(artifacts))
		}
		a := artifacts[0]
		if a.ID != id || a.Name != "db_2024-03-17_02-30-00.sql" || a.Size != 8 || !a.CreatedAt.Equal(createdAt) {
			t.Errorf("Unexpected artifact: %+v", a)
		}

		if err := backend.DeleteArtifact(ctx, nodeID, id); err != nil {
			t.Fatalf("DeleteArtifact() failed: %v", err)
		}
		if err := backend.DeleteArtifact(ctx, nodeID, id); err != nil {
			t.Errorf("Deleting a missing artifact should succeed, got %v", err)
		}

		artifacts, _ = backend.ListArtifacts(ctx, nodeID)
		if len(artifacts) != 0 {
			t.Errorf("Expected no artifacts after delete, got %v", artifacts)
		}
	})

	t.Run("delete node", func(t *testing.T) {
		parentID, _ := backend.CreateChild(ctx, namespace.RootID, "parent")
		childID, _ := backend.CreateChild(ctx, parentID, "child")
		artifactID, _ := backend.PutArtifact(ctx, childID, "a", time.Now(), strings.NewReader("x"))

		if err := backend.DeleteNode(ctx, parentID); !errors.Is(err, namespace.ErrNodeNotEmpty) {
			t.Errorf("Expected ErrNodeNotEmpty for node with children, got %v", err)
		}
		if err := backend.DeleteNode(ctx, childID); !errors.Is(err, namespace.ErrNodeNotEmpty) {
			t.Errorf("Expected ErrNodeNotEmpty for node with artifacts, got %v", err)
		}

		_ = backend.DeleteArtifact(ctx, childID, artifactID)
		if err := backend.DeleteNode(ctx, childID); err != nil {
			t.Fatalf("DeleteNode(child) failed: %v", err)
		}
		if err := backend.DeleteNode(ctx, parentID); err != nil {
			t.Fatalf("DeleteNode(parent) failed: %v", err)
		}

		if err := backend.DeleteNode(ctx, parentID); !errors.Is(err, namespace.ErrNodeNotFound) {
			t.Errorf("Expected ErrNodeNotFound for deleted node, got %v", err)
		}
		if err := backend.DeleteNode(ctx, namespace.RootID); err == nil {
			t.Error("Expected error deleting the root")
		}

		roots, _ := backend.ListChildren(ctx, namespace.RootID)
		for _, n := range roots {
			if n.ID == parentID {
				t.Error("Deleted node still listed under root")
			}
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		if _, err := backend.ListChildren(ctx, "missing"); !errors.Is(err, namespace.ErrNodeNotFound) {
			t.Errorf("ListChildren: expected ErrNodeNotFound, got %v", err)
		}
		if _, err := backend.ListArtifacts(ctx, "missing"); !errors.Is(err, namespace.ErrNodeNotFound) {
			t.Errorf("ListArtifacts: expected ErrNodeNotFound, got %v", err)
		}
		if _, err := backend.CreateChild(ctx, "missing", "x"); !errors.Is(err, namespace.ErrNodeNotFound) {
			t.Errorf("CreateChild: expected ErrNodeNotFound, got %v", err)
		}
	})
}
