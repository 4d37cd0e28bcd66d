package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libragen/libragen/internal/store"
)

func seedSearchCorpus(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := s.AddChunks(ctx, []store.Chunk{
		{Content: "the quick brown fox", Embedding: []float32{1, 0, 0}, SourceFile: "a.go", SourceType: "file", StartLine: 1, EndLine: 1},
		{Content: "jumps over the lazy dog", Embedding: []float32{0, 1, 0}, SourceFile: "b.go", SourceType: "file", StartLine: 1, EndLine: 1},
		{Content: "quick fox quick fox", Embedding: []float32{0.9, 0.1, 0}, SourceFile: "c.go", SourceType: "file", StartLine: 1, EndLine: 1},
	})
	require.NoError(t, err)
}

func TestVectorSearchRanksByCosineSimilarity(t *testing.T) {
	s := openTestStore(t)
	seedSearchCorpus(t, s)

	results, err := s.VectorSearch(context.Background(), []float32{1, 0, 0}, 3, store.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a.go", results[0].Chunk.SourceFile)
}

func TestVectorSearchZeroMagnitudeScoresZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.AddChunk(ctx, store.Chunk{Content: "x", Embedding: []float32{0, 0, 0}, SourceFile: "z.go", SourceType: "file"})
	require.NoError(t, err)

	results, err := s.VectorSearch(ctx, []float32{1, 0, 0}, 1, store.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Score)
}

func TestKeywordSearchFindsMatchingContent(t *testing.T) {
	s := openTestStore(t)
	seedSearchCorpus(t, s)

	results, err := s.KeywordSearch(context.Background(), "lazy dog", 3, store.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "b.go", results[0].Chunk.SourceFile)
}

func TestKeywordSearchEmptyTokensMatchesAll(t *testing.T) {
	s := openTestStore(t)
	seedSearchCorpus(t, s)

	results, err := s.KeywordSearch(context.Background(), `"*()-`, 10, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestHybridSearchFusesByRRF(t *testing.T) {
	s := openTestStore(t)
	seedSearchCorpus(t, s)

	results, err := s.HybridSearch(context.Background(), []float32{1, 0, 0}, "quick fox", 3, store.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestGetAdjacentChunksReturnsBeforeAndAfter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ids, err := s.AddChunks(ctx, []store.Chunk{
		{Content: "one", Embedding: []float32{1}, SourceFile: "f.go", SourceType: "file", StartLine: 1, EndLine: 5},
		{Content: "two", Embedding: []float32{1}, SourceFile: "f.go", SourceType: "file", StartLine: 6, EndLine: 10},
		{Content: "three", Embedding: []float32{1}, SourceFile: "f.go", SourceType: "file", StartLine: 11, EndLine: 15},
	})
	require.NoError(t, err)

	before, after, err := s.GetAdjacentChunks(ctx, ids[1], 1, 1)
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.Len(t, after, 1)
	assert.Equal(t, "one", before[0].Content)
	assert.Equal(t, "three", after[0].Content)
}

func TestGetAdjacentChunksWithoutLineInfoIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id, err := s.AddChunk(ctx, store.Chunk{Content: "no lines", Embedding: []float32{1}, SourceFile: "f.go", SourceType: "file"})
	require.NoError(t, err)

	before, after, err := s.GetAdjacentChunks(ctx, id, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, before)
	assert.Empty(t, after)
}
