package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"mercator-hq/backupkeeper/pkg/namespace"
)

var treeFlags struct {
	artifacts bool
	depth     int
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Render the stored namespace",
	Long: `Print the namespace as a tree of year, month and day nodes.

Examples:
  backupkeeper tree
  backupkeeper tree --artifacts
  backupkeeper tree --depth 2 --output json`,
	RunE: renderTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().BoolVarP(&treeFlags.artifacts, "artifacts", "a", false, "list artifacts under each node")
	treeCmd.Flags().IntVar(&treeFlags.depth, "depth", 0, "maximum depth to descend (0 = unlimited)")
}

// treeNode is one node of the walked namespace.
type treeNode struct {
	ID          string               `json:"id"`
	DisplayName string               `json:"display_name"`
	Artifacts   []namespace.Artifact `json:"artifacts,omitempty"`
	Children    []*treeNode          `json:"children,omitempty"`
}

// walkTree reads the subtree under node. depth <= 0 is unlimited.
func walkTree(ctx context.Context, store namespace.Store, node *treeNode, depth int, artifacts bool) error {
	if artifacts {
		list, err := store.ListArtifacts(ctx, node.ID)
		if err != nil {
			return namespace.NewStoreOperationError(namespace.OpListArtifacts, node.ID, err)
		}
		node.Artifacts = list
	}
	if depth == 1 {
		return nil
	}

	children, err := store.ListChildren(ctx, node.ID)
	if err != nil {
		return namespace.NewStoreOperationError(namespace.OpListChildren, node.ID, err)
	}
	for _, child := range children {
		c := &treeNode{ID: child.ID, DisplayName: child.DisplayName}
		if err := walkTree(ctx, store, c, depth-1, artifacts); err != nil {
			return err
		}
		node.Children = append(node.Children, c)
	}
	return nil
}

func (n *treeNode) RenderText(w io.Writer) error {
	root := gotree.New("/")
	n.addTo(root)
	_, err := io.WriteString(w, root.Print())
	return err
}

func (n *treeNode) addTo(t gotree.Tree) {
	for _, a := range n.Artifacts {
		t.Add(fmt.Sprintf("%s (%d bytes, %s)", a.Name, a.Size, a.CreatedAt.UTC().Format(time.RFC3339)))
	}
	for _, c := range n.Children {
		c.addTo(t.Add(c.DisplayName))
	}
}

func renderTree(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openStore()
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	root := &treeNode{ID: namespace.RootID}
	if err := walkTree(ctx, store, root, treeFlags.depth, treeFlags.artifacts); err != nil {
		return err
	}
	return a.print(cmd.OutOrStdout(), root)
}
