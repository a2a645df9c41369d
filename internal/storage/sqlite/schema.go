// ABOUTME: SQLite database schema for tenants and conversation history
// ABOUTME: Creates all tables and indexes for local storage
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tenants; settings are stored as a JSON document
CREATE TABLE IF NOT EXISTS tenants (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    settings TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL DEFAULT 0 -- unix milliseconds
);

-- Conversation turns (one user message and its reply)
CREATE TABLE IF NOT EXISTS turns (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    user_message TEXT NOT NULL,
    assistant_message TEXT NOT NULL,
    route TEXT NOT NULL,
    tokens INTEGER DEFAULT 0,
    model TEXT,
    skill TEXT,
    action TEXT,
    seq INTEGER NOT NULL,
    created_at INTEGER NOT NULL -- unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(tenant_id, conversation_id, seq);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
