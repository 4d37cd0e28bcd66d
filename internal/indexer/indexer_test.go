package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libragen/libragen/internal/embed"
	libragenerrors "github.com/libragen/libragen/internal/errors"
	"github.com/libragen/libragen/internal/indexer"
	"github.com/libragen/libragen/internal/store"
)

func writeTestFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildProducesArtifactWithChunksAndManifest(t *testing.T) {
	srcDir := t.TempDir()
	writeTestFile(t, srcDir, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")
	writeTestFile(t, srcDir, "README.md", "# Example\n\nSome docs about the project.\n")

	outDir := t.TempDir()
	b := indexer.New()

	var phases []indexer.Phase
	result, err := b.Build(context.Background(), indexer.BuildOptions{
		Source:   srcDir,
		Output:   outDir,
		Name:     "acme",
		Version:  "1.0.0",
		Embedder: embed.NewStaticEmbedder(),
	}, func(p indexer.Progress) {
		phases = append(phases, p.Phase)
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "acme-1.0.0.libragen"), result.OutputPath)
	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, 2, result.SourceCount)
	assert.Contains(t, phases, indexer.PhaseComplete)
	assert.Contains(t, phases, indexer.PhaseEmbedding)

	s, err := store.Open(context.Background(), result.OutputPath)
	require.NoError(t, err)
	defer s.Close()

	rowCount, err := s.RowCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, rowCount)
}

func TestBuildWithExplicitOutputPathUsesItDirectly(t *testing.T) {
	srcDir := t.TempDir()
	writeTestFile(t, srcDir, "a.txt", "hello world, this is plain text content.\n")

	destPath := filepath.Join(t.TempDir(), "custom.libragen")
	b := indexer.New()

	result, err := b.Build(context.Background(), indexer.BuildOptions{
		Source:   srcDir,
		Output:   destPath,
		Name:     "acme",
		Embedder: embed.NewStaticEmbedder(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, destPath, result.OutputPath)
}

func TestBuildWithNoMatchableFilesReturnsEmptyIndexError(t *testing.T) {
	srcDir := t.TempDir()
	writeTestFile(t, srcDir, "image.bin", "\x00\x01\x02binary")

	b := indexer.New()
	_, err := b.Build(context.Background(), indexer.BuildOptions{
		Source:   srcDir,
		Output:   t.TempDir(),
		Name:     "acme",
		Embedder: embed.NewStaticEmbedder(),
	}, nil)
	require.Error(t, err)
	assert.True(t, libragenerrors.Is(err, libragenerrors.KindEmptyIndex))
}

func TestBuildWithoutEmbedderFails(t *testing.T) {
	srcDir := t.TempDir()
	writeTestFile(t, srcDir, "a.go", "package main\n")

	b := indexer.New()
	_, err := b.Build(context.Background(), indexer.BuildOptions{
		Source: srcDir,
		Output: t.TempDir(),
		Name:   "acme",
	}, nil)
	require.Error(t, err)
}

func TestBuildHonorsCancellationBeforeWork(t *testing.T) {
	srcDir := t.TempDir()
	writeTestFile(t, srcDir, "a.go", "package main\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := indexer.New()
	_, err := b.Build(ctx, indexer.BuildOptions{
		Source:   srcDir,
		Output:   t.TempDir(),
		Name:     "acme",
		Embedder: embed.NewStaticEmbedder(),
	}, nil)
	require.Error(t, err)
}
