// ABOUTME: SQLite database schema for persisted vector indexes
// ABOUTME: One namespace per session, vectors and chunks keyed by position
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- One row per persisted index
CREATE TABLE IF NOT EXISTS index_meta (
    namespace TEXT PRIMARY KEY,
    generation TEXT NOT NULL,
    document_id TEXT NOT NULL DEFAULT '',
    dimension INTEGER NOT NULL,
    entry_count INTEGER NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Vectors as little-endian float32 blobs
CREATE TABLE IF NOT EXISTS index_vectors (
    namespace TEXT NOT NULL REFERENCES index_meta(namespace) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    vector BLOB NOT NULL,
    PRIMARY KEY (namespace, position)
);

-- Chunk texts, parallel to index_vectors
CREATE TABLE IF NOT EXISTS index_chunks (
    namespace TEXT NOT NULL REFERENCES index_meta(namespace) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (namespace, position)
);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
