package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// ftsSpecialChars are tokenizer control characters stripped from query
// tokens before they are joined into an FTS5 MATCH expression.
const ftsSpecialChars = `'"*()-`

// sanitizeFTSQuery splits q on whitespace, strips tokenizer-special
// characters from each token, drops tokens that become empty, and joins
// the rest with OR. An empty result means "match all".
func sanitizeFTSQuery(q string) string {
	fields := strings.Fields(q)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.Map(func(r rune) rune {
			if strings.ContainsRune(ftsSpecialChars, r) {
				return -1
			}
			return r
		}, f)
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return strings.Join(tokens, " OR ")
}

// KeywordSearch returns the top-k chunks by BM25 relevance. SQLite's
// bm25() is lower-is-better; the returned Score is its negation so
// callers see a consistent higher-is-better semantic across search
// methods.
func (s *Store) KeywordSearch(ctx context.Context, queryText string, k int, filter Filter) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	matchExpr := sanitizeFTSQuery(queryText)

	var (
		rowsQuery string
		args      []any
	)
	if matchExpr == "" {
		rowsQuery = `
			SELECT id, content, embedding, source_file, source_type, source_ref,
			       content_version, start_line, end_line, language, metadata_json, created_at, 0.0 AS score
			FROM chunks
		`
		if filter.ContentVersion != "" {
			rowsQuery += ` WHERE content_version = ?`
			args = append(args, filter.ContentVersion)
		}
		rowsQuery += ` ORDER BY id ASC LIMIT ?`
		args = append(args, k)
	} else {
		rowsQuery = `
			SELECT c.id, c.content, c.embedding, c.source_file, c.source_type, c.source_ref,
			       c.content_version, c.start_line, c.end_line, c.language, c.metadata_json, c.created_at,
			       -bm25(chunks_fts) AS score
			FROM chunks_fts
			JOIN chunks c ON c.id = chunks_fts.rowid
			WHERE chunks_fts.content MATCH ?
		`
		args = append(args, matchExpr)
		if filter.ContentVersion != "" {
			rowsQuery += ` AND c.content_version = ?`
			args = append(args, filter.ContentVersion)
		}
		rowsQuery += ` ORDER BY score DESC LIMIT ?`
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx, rowsQuery, args...)
	if err != nil {
		// A malformed MATCH expression is a query-time error from the
		// engine's perspective, not a store fault: surface it as no results.
		return nil, nil
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var score float64
		c, err := scanChunkWithScore(rows, &score)
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "scan keyword search row", err)
		}
		results = append(results, Result{Chunk: *c, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "iterate keyword search rows", err)
	}
	return results, nil
}

func scanChunkWithScore(rows *sql.Rows, score *float64) (*Chunk, error) {
	var (
		c              Chunk
		embedding      []byte
		sourceRef      sql.NullString
		contentVersion sql.NullString
		startLine      sql.NullInt64
		endLine        sql.NullInt64
		language       sql.NullString
		metadataJSON   sql.NullString
		createdAt      string
	)
	if err := rows.Scan(
		&c.ID, &c.Content, &embedding, &c.SourceFile, &c.SourceType, &sourceRef,
		&contentVersion, &startLine, &endLine, &language, &metadataJSON, &createdAt, score,
	); err != nil {
		return nil, err
	}
	c.Embedding = decodeVector(embedding)
	c.SourceRef = sourceRef.String
	c.ContentVersion = contentVersion.String
	c.StartLine = int(startLine.Int64)
	c.EndLine = int(endLine.Int64)
	c.Language = language.String
	if metadataJSON.Valid && metadataJSON.String != "" {
		_ = json.Unmarshal([]byte(metadataJSON.String), &c.Metadata)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		c.CreatedAt = t
	}
	return &c, nil
}
