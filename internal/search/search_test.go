package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libragen/libragen/internal/embed"
	"github.com/libragen/libragen/internal/search"
	"github.com/libragen/libragen/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSearchEmptyQueryReturnsNoResults(t *testing.T) {
	s := newTestStore(t)
	e := search.New(s, embed.NewStaticEmbedder(), nil)

	results, err := e.Search(context.Background(), search.Options{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchKeywordOnlyWhenAlphaZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	emb := embed.NewStaticEmbedder()

	for _, text := range []string{"hybrid search engine", "unrelated content here"} {
		vec, err := emb.Embed(ctx, text)
		require.NoError(t, err)
		_, err = s.AddChunk(ctx, store.Chunk{Content: text, Embedding: vec, SourceFile: "f.go", SourceType: "file", StartLine: 1, EndLine: 1})
		require.NoError(t, err)
	}

	e := search.New(s, emb, nil)
	results, err := e.Search(ctx, search.Options{Query: "hybrid search", HybridAlpha: 0, K: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.Content, "hybrid")
}

func TestSearchDedupesBySourceFileAndStartLine(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	emb := embed.NewStaticEmbedder()
	vec, err := emb.Embed(ctx, "duplicate entry")
	require.NoError(t, err)

	_, err = s.AddChunks(ctx, []store.Chunk{
		{Content: "duplicate entry", Embedding: vec, SourceFile: "f.go", SourceType: "file", StartLine: 1, EndLine: 1},
		{Content: "duplicate entry", Embedding: vec, SourceFile: "f.go", SourceType: "file", StartLine: 1, EndLine: 1},
	})
	require.NoError(t, err)

	e := search.New(s, emb, nil)
	results, err := e.Search(ctx, search.Options{Query: "duplicate entry", HybridAlpha: 1, K: 5})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchRerankWithoutRerankerIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	emb := embed.NewStaticEmbedder()
	vec, err := emb.Embed(ctx, "some content")
	require.NoError(t, err)
	_, err = s.AddChunk(ctx, store.Chunk{Content: "some content", Embedding: vec, SourceFile: "f.go", SourceType: "file", StartLine: 1, EndLine: 1})
	require.NoError(t, err)

	e := search.New(s, emb, nil)
	results, err := e.Search(ctx, search.Options{Query: "some content", HybridAlpha: 0.5, Rerank: true, K: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

type stubReranker struct{}

func (stubReranker) Score(_ context.Context, _ string, documents []string) ([]float64, error) {
	scores := make([]float64, len(documents))
	for i, doc := range documents {
		if doc == "best match" {
			scores[i] = 1.0
		}
	}
	return scores, nil
}

func TestSearchRerankReordersByRerankScore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	emb := embed.NewStaticEmbedder()

	for i, text := range []string{"best match", "worst match"} {
		vec, err := emb.Embed(ctx, text)
		require.NoError(t, err)
		_, err = s.AddChunk(ctx, store.Chunk{Content: text, Embedding: vec, SourceFile: "f.go", SourceType: "file", StartLine: i + 1, EndLine: i + 1})
		require.NoError(t, err)
	}

	e := search.New(s, emb, stubReranker{})
	results, err := e.Search(ctx, search.Options{Query: "match", HybridAlpha: 0.5, Rerank: true, K: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "best match", results[0].Chunk.Content)
}

func TestSearchAttachesAdjacentContext(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	emb := embed.NewStaticEmbedder()

	texts := []string{"first chunk here", "second chunk target", "third chunk here"}
	var chunks []store.Chunk
	for i, text := range texts {
		vec, err := emb.Embed(ctx, text)
		require.NoError(t, err)
		chunks = append(chunks, store.Chunk{
			Content: text, Embedding: vec, SourceFile: "f.go", SourceType: "file",
			StartLine: i*5 + 1, EndLine: i*5 + 4,
		})
	}
	_, err := s.AddChunks(ctx, chunks)
	require.NoError(t, err)

	e := search.New(s, emb, nil)
	results, err := e.Search(ctx, search.Options{Query: "second chunk target", HybridAlpha: 1, K: 1, ContextBefore: 1, ContextAfter: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].ContextBefore, 1)
	assert.Len(t, results[0].ContextAfter, 1)
}
