package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// Result is one scored hit returned by a search method.
type Result struct {
	Chunk Chunk
	Score float64
}

// encodeVector packs a []float32 into a little-endian BLOB.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian float32 BLOB.
func decodeVector(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// cosineSimilarity is dot(a,b) / (||a||*||b||). Either zero-magnitude
// vector scores 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, magA, magB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		magA += float64(v) * float64(v)
	}
	for _, v := range b {
		magB += float64(v) * float64(v)
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// VectorSearch returns the top-k chunks by cosine similarity to queryVec
// among rows matching filter.ContentVersion (when set). This is a
// brute-force scan: exact and deterministically tie-broken by lower id,
// which an approximate index cannot guarantee and which the search
// engine's testable ranking properties require.
func (s *Store) VectorSearch(ctx context.Context, queryVec []float32, k int, filter Filter) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, content, embedding, source_file, source_type, source_ref,
		       content_version, start_line, end_line, language, metadata_json, created_at
		FROM chunks
	`
	var args []any
	if filter.ContentVersion != "" {
		query += ` WHERE content_version = ?`
		args = append(args, filter.ContentVersion)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "scan chunks for vector search", err)
	}
	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "read chunk rows", err)
	}

	results := make([]Result, len(chunks))
	for i, c := range chunks {
		results[i] = Result{Chunk: c, Score: cosineSimilarity(queryVec, c.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

type contentHasher struct {
	h []byte
}

func newContentHasher() *contentHasher {
	return &contentHasher{}
}

func (c *contentHasher) write(s string) {
	c.h = append(c.h, []byte(s)...)
}

func (c *contentHasher) sum() string {
	sum := sha256.Sum256(c.h)
	return hex.EncodeToString(sum[:])
}
