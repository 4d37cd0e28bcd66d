package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// rowScanner abstracts *sql.Row and *sql.Rows so scanChunk works for both.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(r rowScanner) (*Chunk, error) {
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

	if err := r.Scan(
		&c.ID, &c.Content, &embedding, &c.SourceFile, &c.SourceType, &sourceRef,
		&contentVersion, &startLine, &endLine, &language, &metadataJSON, &createdAt,
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

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	defer rows.Close()
	var out []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func reverseChunks(cs []Chunk) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}
