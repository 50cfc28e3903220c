package main

import (
	"strings"
	"testing"
)

func TestRenderTree(t *testing.T) {
	env := setupTestEnv(t)
	seedDays(t, env, "2024-01-01", "2024-02-03")

	treeFlags.artifacts = true
	out, err := execute(t, renderTree)
	if err != nil {
		t.Fatalf("renderTree() error = %v", err)
	}

	var root treeNode
	decode(t, out, &root)

	if len(root.Children) != 1 || root.Children[0].DisplayName != "2024" {
		t.Fatalf("Expected a single year node, got %+v", root.Children)
	}
	months := root.Children[0].Children
	if len(months) != 2 {
		t.Fatalf("Expected two month nodes, got %+v", months)
	}
	for _, month := range months {
		if len(month.Children) != 1 || len(month.Children[0].Artifacts) != 1 {
			t.Errorf("Expected one day with one artifact under %s", month.DisplayName)
		}
	}
}

func TestRenderTreeText(t *testing.T) {
	env := setupTestEnv(t)
	seedDays(t, env, "2024-01-01")

	outputFormat = "text"
	out, err := execute(t, renderTree)
	if err != nil {
		t.Fatalf("renderTree() error = %v", err)
	}
	for _, want := range []string{"2024", "01 January", "01"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in tree:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bytes") {
		t.Errorf("Expected no artifacts without --artifacts:\n%s", out)
	}
}

func TestRenderTreeDepth(t *testing.T) {
	env := setupTestEnv(t)
	seedDays(t, env, "2024-01-01")

	treeFlags.depth = 2
	out, err := execute(t, renderTree)
	if err != nil {
		t.Fatalf("renderTree() error = %v", err)
	}

	var root treeNode
	decode(t, out, &root)
	if len(root.Children) != 1 || len(root.Children[0].Children) != 0 {
		t.Errorf("Expected years only at depth 2, got %+v", root.Children)
	}
}
