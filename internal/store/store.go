// Package store implements the artifact store: a single SQLite file
// holding chunk rows, their embeddings, an FTS5 keyword index kept in
// sync by triggers, and a key/value metadata table. It is the only
// package that touches the on-disk *.libragen file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// Chunk is one row of the chunks table together with its embedding.
type Chunk struct {
	ID             int64
	Content        string
	Embedding      []float32
	SourceFile     string
	SourceType     string
	SourceRef      string
	ContentVersion string
	StartLine      int
	EndLine        int
	Language       string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Filter narrows store queries to a content version.
type Filter struct {
	ContentVersion string
}

// Store is a single open artifact file.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Open creates the file at path if it does not exist and applies schema
// DDL (idempotent: IF NOT EXISTS everywhere), or opens an existing file and
// runs pending migrations via the Runner. Pass ":memory:" for an ephemeral
// store used in tests.
func Open(ctx context.Context, path string) (*Store, error) {
	isNew := path == ":memory:"
	if !isNew {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			isNew = true
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "create artifact directory", err)
				}
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "open artifact file", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "set pragma", err)
		}
	}

	s := &Store{db: db, path: path}

	if isNew {
		if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
			_ = db.Close()
			return nil, libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "apply schema", err)
		}
		if err := s.SetMeta(ctx, "schema_version", fmt.Sprintf("%d", CurrentSchemaVersion)); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	}

	if err := RunMigrations(ctx, s, path); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.path != ":memory:" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

func (s *Store) requireOpen() error {
	if s.closed {
		return libragenerrors.New(libragenerrors.KindIOError, "store is closed")
	}
	return nil
}

// AddChunk inserts a single chunk and returns its new id.
func (s *Store) AddChunk(ctx context.Context, c Chunk) (int64, error) {
	ids, err := s.AddChunks(ctx, []Chunk{c})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AddChunks inserts all chunks atomically in a single transaction using a
// prepared statement reused across the batch. Rolls back entirely on any
// single-row failure.
func (s *Store) AddChunks(ctx context.Context, chunks []Chunk) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks(
			content, embedding, source_file, source_type, source_ref,
			content_version, start_line, end_line, language, metadata_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "prepare insert", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		metaJSON, err := encodeMetadata(c.Metadata)
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "encode chunk metadata", err)
		}

		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		res, err := stmt.ExecContext(ctx,
			c.Content, encodeVector(c.Embedding), c.SourceFile, c.SourceType, c.SourceRef,
			c.ContentVersion, nullableInt(c.StartLine), nullableInt(c.EndLine), c.Language,
			metaJSON, createdAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "insert chunk", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "read inserted chunk id", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "commit chunk batch", err)
	}
	return ids, nil
}

// GetAdjacentChunks returns up to `before` chunks from the same source file
// ending strictly before ref's start line (descending by start_line, then
// returned ascending), and up to `after` chunks starting strictly after
// ref's end line (ascending). Missing line info on ref yields no adjacency.
func (s *Store) GetAdjacentChunks(ctx context.Context, refID int64, before, after int) (prior []Chunk, following []Chunk, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return nil, nil, err
	}

	ref, err := s.chunkByID(ctx, refID)
	if err != nil {
		return nil, nil, err
	}
	if ref == nil || ref.StartLine == 0 && ref.EndLine == 0 {
		return nil, nil, nil
	}

	if before > 0 {
		rows, qerr := s.db.QueryContext(ctx, `
			SELECT id, content, embedding, source_file, source_type, source_ref,
			       content_version, start_line, end_line, language, metadata_json, created_at
			FROM chunks
			WHERE source_file = ? AND end_line IS NOT NULL AND end_line < ?
			ORDER BY start_line DESC
			LIMIT ?
		`, ref.SourceFile, ref.StartLine, before)
		if qerr != nil {
			return nil, nil, libragenerrors.Wrap(libragenerrors.KindIOError, "query prior chunks", qerr)
		}
		prior, err = scanChunks(rows)
		if err != nil {
			return nil, nil, err
		}
		reverseChunks(prior)
	}

	if after > 0 {
		rows, qerr := s.db.QueryContext(ctx, `
			SELECT id, content, embedding, source_file, source_type, source_ref,
			       content_version, start_line, end_line, language, metadata_json, created_at
			FROM chunks
			WHERE source_file = ? AND start_line IS NOT NULL AND start_line > ?
			ORDER BY start_line ASC
			LIMIT ?
		`, ref.SourceFile, ref.EndLine, after)
		if qerr != nil {
			return nil, nil, libragenerrors.Wrap(libragenerrors.KindIOError, "query following chunks", qerr)
		}
		following, err = scanChunks(rows)
		if err != nil {
			return nil, nil, err
		}
	}

	return prior, following, nil
}

func (s *Store) chunkByID(ctx context.Context, id int64) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, embedding, source_file, source_type, source_ref,
		       content_version, start_line, end_line, language, metadata_json, created_at
		FROM chunks WHERE id = ?
	`, id)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "fetch chunk by id", err)
	}
	return c, nil
}

// SetMeta sets a single key/value pair in library_meta.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO library_meta(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "set meta", err)
	}
	return nil
}

// GetMeta reads a single key; ok is false when the key is absent.
func (s *Store) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return "", false, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT value FROM library_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, libragenerrors.Wrap(libragenerrors.KindIOError, "get meta", err)
	}
	return value, true, nil
}

// GetAllMeta returns every library_meta row.
func (s *Store) GetAllMeta(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM library_meta`)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "list meta", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "scan meta row", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetMetadata serializes v as JSON under the reserved "manifest" key.
func (s *Store) SetMetadata(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "marshal manifest", err)
	}
	return s.SetMeta(ctx, "manifest", string(b))
}

// GetMetadata deserializes the "manifest" key into out.
func (s *Store) GetMetadata(ctx context.Context, out any) error {
	raw, ok, err := s.GetMeta(ctx, "manifest")
	if err != nil {
		return err
	}
	if !ok {
		return libragenerrors.New(libragenerrors.KindNotFound, "no manifest stored in artifact")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "unmarshal manifest", err)
	}
	return nil
}

// RowCount returns the number of chunk rows, used by the indexer to
// populate manifest.stats.chunkCount.
func (s *Store) RowCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, libragenerrors.Wrap(libragenerrors.KindIOError, "count chunks", err)
	}
	return n, nil
}

// SourceCount returns the number of distinct source files, used for
// manifest.stats.sourceCount.
func (s *Store) SourceCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT source_file) FROM chunks`).Scan(&n); err != nil {
		return 0, libragenerrors.Wrap(libragenerrors.KindIOError, "count sources", err)
	}
	return n, nil
}

// ContentHash computes sha256 over chunk contents concatenated in
// ascending id order, as required by the store's content-hash invariant.
func (s *Store) ContentHash(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return "", err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT content FROM chunks ORDER BY id ASC`)
	if err != nil {
		return "", libragenerrors.Wrap(libragenerrors.KindIOError, "read chunk contents", err)
	}
	defer rows.Close()

	h := newContentHasher()
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", libragenerrors.Wrap(libragenerrors.KindIOError, "scan chunk content", err)
		}
		h.write(content)
	}
	if err := rows.Err(); err != nil {
		return "", libragenerrors.Wrap(libragenerrors.KindIOError, "iterate chunk contents", err)
	}
	return h.sum(), nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func encodeMetadata(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
