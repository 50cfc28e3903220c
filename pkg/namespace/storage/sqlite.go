package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/backupkeeper/pkg/namespace"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/backups.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements namespace.Backend on a SQLite database. Artifact
// content is stored inline as a BLOB.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) a SQLite namespace store.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "namespace.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewBackendError("sqlite", "open", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite namespace store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewBackendError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewBackendError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewBackendError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewBackendError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewBackendError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewBackendError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// ListChildren returns the children of nodeID in creation order.
func (s *SQLiteStore) ListChildren(ctx context.Context, nodeID string) ([]namespace.Node, error) {
	if err := s.requireNode(ctx, s.db, namespace.OpListChildren, nodeID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryListChildren, nodeID)
	if err != nil {
		return nil, NewBackendError("sqlite", namespace.OpListChildren, err)
	}
	defer rows.Close()

	var children []namespace.Node
	for rows.Next() {
		var node namespace.Node
		if err := rows.Scan(&node.ID, &node.DisplayName); err != nil {
			return nil, NewBackendError("sqlite", namespace.OpListChildren, err)
		}
		children = append(children, node)
	}
	if err := rows.Err(); err != nil {
		return nil, NewBackendError("sqlite", namespace.OpListChildren, err)
	}
	return children, nil
}

// CreateChild adds a child node under parentID.
func (s *SQLiteStore) CreateChild(ctx context.Context, parentID, displayName string) (string, error) {
	if err := s.requireNode(ctx, s.db, namespace.OpCreateChild, parentID); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, queryInsertNode, id, parentID, displayName, time.Now().UnixNano()); err != nil {
		return "", NewBackendError("sqlite", namespace.OpCreateChild, err)
	}
	return id, nil
}

// ListArtifacts returns the artifacts of nodeID in upload order.
func (s *SQLiteStore) ListArtifacts(ctx context.Context, nodeID string) ([]namespace.Artifact, error) {
	if err := s.requireNode(ctx, s.db, namespace.OpListArtifacts, nodeID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryListArtifacts, nodeID)
	if err != nil {
		return nil, NewBackendError("sqlite", namespace.OpListArtifacts, err)
	}
	defer rows.Close()

	var artifacts []namespace.Artifact
	for rows.Next() {
		var (
			artifact  namespace.Artifact
			createdAt int64
		)
		if err := rows.Scan(&artifact.ID, &artifact.Name, &createdAt, &artifact.Size); err != nil {
			return nil, NewBackendError("sqlite", namespace.OpListArtifacts, err)
		}
		artifact.CreatedAt = time.Unix(0, createdAt).UTC()
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, NewBackendError("sqlite", namespace.OpListArtifacts, err)
	}
	return artifacts, nil
}

// DeleteArtifact removes an artifact. Unknown artifacts are ignored.
func (s *SQLiteStore) DeleteArtifact(ctx context.Context, nodeID, artifactID string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteArtifact, artifactID, nodeID); err != nil {
		return NewBackendError("sqlite", namespace.OpDeleteArtifact, err)
	}
	return nil
}

// DeleteNode removes an empty node. The emptiness check and the delete run
// in one transaction.
func (s *SQLiteStore) DeleteNode(ctx context.Context, nodeID string) error {
	if nodeID == namespace.RootID {
		return NewBackendError("sqlite", namespace.OpDeleteNode, errors.New("the namespace root cannot be deleted"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewBackendError("sqlite", "begin_transaction", err)
	}
	defer tx.Rollback()

	if err := s.requireNode(ctx, tx, namespace.OpDeleteNode, nodeID); err != nil {
		return err
	}

	var children, artifacts int
	if err := tx.QueryRowContext(ctx, queryCountChildren, nodeID).Scan(&children); err != nil {
		return NewBackendError("sqlite", namespace.OpDeleteNode, err)
	}
	if err := tx.QueryRowContext(ctx, queryCountArtifacts, nodeID).Scan(&artifacts); err != nil {
		return NewBackendError("sqlite", namespace.OpDeleteNode, err)
	}
	if children > 0 || artifacts > 0 {
		return fmt.Errorf("node %q has %d children and %d artifacts: %w",
			nodeID, children, artifacts, namespace.ErrNodeNotEmpty)
	}

	if _, err := tx.ExecContext(ctx, queryDeleteNode, nodeID); err != nil {
		return NewBackendError("sqlite", namespace.OpDeleteNode, err)
	}

	if err := tx.Commit(); err != nil {
		return NewBackendError("sqlite", "commit_transaction", err)
	}
	return nil
}

// PutArtifact stores the content of r as a new artifact under nodeID.
func (s *SQLiteStore) PutArtifact(ctx context.Context, nodeID, name string, createdAt time.Time, r io.Reader) (string, error) {
	var buf bytes.Buffer
	size, err := io.Copy(&buf, r)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %q: %w", name, err)
	}

	if err := s.requireNode(ctx, s.db, namespace.OpPutArtifact, nodeID); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, queryInsertArtifact,
		id, nodeID, name, createdAt.UnixNano(), size, buf.Bytes()); err != nil {
		return "", NewBackendError("sqlite", namespace.OpPutArtifact, err)
	}

	s.logger.Debug("artifact stored", "node_id", nodeID, "artifact_id", id, "name", name, "size", size)
	return id, nil
}

// Content returns an artifact's bytes.
func (s *SQLiteStore) Content(ctx context.Context, artifactID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, queryArtifactContent, artifactID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %q not found", artifactID)
	}
	if err != nil {
		return nil, NewBackendError("sqlite", "read_content", err)
	}
	return data, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewBackendError("sqlite", "close", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// requireNode fails with namespace.ErrNodeNotFound unless nodeID is the root
// or an existing node.
func (s *SQLiteStore) requireNode(ctx context.Context, q queryRower, operation, nodeID string) error {
	if nodeID == namespace.RootID {
		return nil
	}

	var one int
	err := q.QueryRowContext(ctx, queryNodeExists, nodeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
	}
	if err != nil {
		return NewBackendError("sqlite", operation, err)
	}
	return nil
}
