package store

// CurrentSchemaVersion is the schema_version value written by a freshly
// created store and the version all migrations converge on.
const CurrentSchemaVersion = 1

// schemaDDL creates the full schema for a brand new artifact file. Open
// runs it only when it creates the file; the migration runner does not
// execute it.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS library_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	type                 TEXT NOT NULL,
	uri                  TEXT NOT NULL,
	ref                  TEXT,
	content_version      TEXT,
	content_version_type TEXT,
	retrieved_at         TEXT,
	metadata_json        TEXT
);

CREATE TABLE IF NOT EXISTS chunks (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	content         TEXT NOT NULL,
	embedding       BLOB NOT NULL,
	source_file     TEXT NOT NULL,
	source_type     TEXT NOT NULL,
	source_ref      TEXT,
	content_version TEXT,
	start_line      INTEGER,
	end_line        INTEGER,
	language        TEXT,
	metadata_json   TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_content_version ON chunks(content_version);
CREATE INDEX IF NOT EXISTS idx_chunks_source_file ON chunks(source_file);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	content,
	content='chunks',
	content_rowid='id',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;

CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.id, old.content);
	INSERT INTO chunks_fts(rowid, content) VALUES (new.id, new.content);
END;
`

// pragmas applied to every connection. A single *sql.DB with MaxOpenConns(1)
// is used so PRAGMA state (which is connection-scoped in SQLite) is stable
// and so the single-writer discipline the store relies on is enforced by
// the connection pool rather than by application-level locking.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}
