package namespace

import (
	"context"
	"io"
	"time"
)

// RootID addresses the root of the namespace. The root always exists and is
// never deleted.
const RootID = ""

// Store operation names, used in errors, logs and metric labels.
const (
	OpListChildren   = "list_children"
	OpCreateChild    = "create_child"
	OpListArtifacts  = "list_artifacts"
	OpDeleteArtifact = "delete_artifact"
	OpDeleteNode     = "delete_node"
	OpPutArtifact    = "put_artifact"
)

// Node is a container in the namespace tree.
type Node struct {
	// ID is assigned by the store and is opaque to callers.
	ID string `json:"id"`

	// DisplayName identifies the node among its siblings, compared
	// case-insensitively.
	DisplayName string `json:"display_name"`
}

// Artifact is a dated backup attached to exactly one node.
type Artifact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// Store is the hierarchical object store the resolver and sweeper work
// against. Implementations must be safe for concurrent use.
type Store interface {
	// ListChildren returns the direct child nodes of nodeID in a stable order.
	ListChildren(ctx context.Context, nodeID string) ([]Node, error)

	// CreateChild creates a child of parentID and returns the new node's ID.
	CreateChild(ctx context.Context, parentID, displayName string) (string, error)

	// ListArtifacts returns the artifacts attached directly to nodeID.
	ListArtifacts(ctx context.Context, nodeID string) ([]Artifact, error)

	// DeleteArtifact removes an artifact. Deleting an artifact that no
	// longer exists succeeds.
	DeleteArtifact(ctx context.Context, nodeID, artifactID string) error

	// DeleteNode removes an empty node. It fails with ErrNodeNotEmpty if
	// the node still has children or artifacts and ErrNodeNotFound if it
	// does not exist.
	DeleteNode(ctx context.Context, nodeID string) error
}

// ArtifactWriter uploads artifact content under a node.
type ArtifactWriter interface {
	PutArtifact(ctx context.Context, nodeID, name string, createdAt time.Time, r io.Reader) (string, error)
}

// Backend is a complete store implementation as opened from configuration.
type Backend interface {
	Store
	ArtifactWriter
	io.Closer
}
