package storage

// SchemaVersion is the current namespace database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the namespace database schema.
// Top-level nodes have parent_id ''. Timestamps are unix nanoseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    parent_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, seq);

CREATE TABLE IF NOT EXISTS artifacts (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    node_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    size INTEGER NOT NULL,
    content BLOB
);

CREATE INDEX IF NOT EXISTS idx_artifacts_node ON artifacts(node_id, seq);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const (
	queryListChildren    = `SELECT id, display_name FROM nodes WHERE parent_id = ? ORDER BY seq`
	queryNodeExists      = `SELECT 1 FROM nodes WHERE id = ?`
	queryInsertNode      = `INSERT INTO nodes (id, parent_id, display_name, created_at) VALUES (?, ?, ?, ?)`
	queryListArtifacts   = `SELECT id, name, created_at, size FROM artifacts WHERE node_id = ? ORDER BY seq`
	queryDeleteArtifact  = `DELETE FROM artifacts WHERE id = ? AND node_id = ?`
	queryInsertArtifact  = `INSERT INTO artifacts (id, node_id, name, created_at, size, content) VALUES (?, ?, ?, ?, ?, ?)`
	queryCountChildren   = `SELECT COUNT(*) FROM nodes WHERE parent_id = ?`
	queryCountArtifacts  = `SELECT COUNT(*) FROM artifacts WHERE node_id = ?`
	queryDeleteNode      = `DELETE FROM nodes WHERE id = ?`
	queryArtifactContent = `SELECT content FROM artifacts WHERE id = ?`
)
