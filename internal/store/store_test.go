package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libragen/libragen/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSetsCurrentSchemaVersion(t *testing.T) {
	s := openTestStore(t)
	v, ok, err := s.GetMeta(context.Background(), "schema_version")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestAddChunkAndRowCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.AddChunk(ctx, store.Chunk{
		Content:    "package main",
		Embedding:  []float32{1, 0, 0},
		SourceFile: "main.go",
		SourceType: "file",
		StartLine:  1,
		EndLine:    1,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	n, err := s.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddChunksInsertsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddChunks(ctx, []store.Chunk{
		{Content: "a", Embedding: []float32{1}, SourceFile: "a.go", SourceType: "file"},
		{Content: "b", Embedding: []float32{1}, SourceFile: "b.go", SourceType: "file"},
	})
	require.NoError(t, err)

	n, err := s.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSetAndGetMetadata(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	type manifest struct {
		Name string `json:"name"`
	}
	require.NoError(t, s.SetMetadata(ctx, manifest{Name: "demo"}))

	var out manifest
	require.NoError(t, s.GetMetadata(ctx, &out))
	assert.Equal(t, "demo", out.Name)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestContentHashIsOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.AddChunks(ctx, []store.Chunk{
		{Content: "alpha", Embedding: []float32{1}, SourceFile: "a.go", SourceType: "file"},
		{Content: "beta", Embedding: []float32{1}, SourceFile: "a.go", SourceType: "file"},
	})
	require.NoError(t, err)

	h1, err := s.ContentHash(ctx)
	require.NoError(t, err)

	s2 := openTestStore(t)
	_, err = s2.AddChunks(ctx, []store.Chunk{
		{Content: "alpha", Embedding: []float32{1}, SourceFile: "a.go", SourceType: "file"},
		{Content: "beta", Embedding: []float32{1}, SourceFile: "a.go", SourceType: "file"},
	})
	require.NoError(t, err)
	h2, err := s2.ContentHash(ctx)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}
