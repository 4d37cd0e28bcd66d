// Package indexer implements the Builder: the orchestration that turns a
// source (local path or git URL) into a finished artifact file, reporting
// progress at phase boundaries.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/libragen/libragen/internal/chunk"
	libragenerrors "github.com/libragen/libragen/internal/errors"
	"github.com/libragen/libragen/internal/embed"
	"github.com/libragen/libragen/internal/gitsource"
	"github.com/libragen/libragen/internal/license"
	"github.com/libragen/libragen/internal/manifest"
	"github.com/libragen/libragen/internal/source"
	"github.com/libragen/libragen/internal/store"
)

// Phase identifies a stage of the build pipeline.
type Phase string

const (
	PhaseInitializing     Phase = "initializing"
	PhaseCloning          Phase = "cloning"
	PhaseLoadingModel     Phase = "loading-model"
	PhaseChunking         Phase = "chunking"
	PhaseEmbedding        Phase = "embedding"
	PhaseCreatingDatabase Phase = "creating-database"
	PhaseComplete         Phase = "complete"
)

// embeddingBatchSize is the number of chunks embedded per EmbedBatch call.
const embeddingBatchSize = 50

// Progress is emitted at phase boundaries and, during embedding, once per
// batch.
type Progress struct {
	Phase    Phase
	Progress int // 0-100
	Message  string
	Current  int
	Total    int
}

// ProgressFunc receives Progress updates. A nil func is a no-op sink.
type ProgressFunc func(Progress)

// BuildOptions configures a Build call.
type BuildOptions struct {
	// Source is a local filesystem path or a recognized git URL.
	Source string
	// Ref is a branch/tag override for git sources.
	Ref string
	// SubPath restricts scanning to a sub-directory of a git checkout.
	SubPath string
	// Output is the destination path, directory, or empty (see resolveOutputPath).
	Output string

	Name                 string
	Version              string
	Description          string
	AgentDescription     string
	ExampleQueries       []string
	Keywords             []string
	License              string // explicit SPDX override; takes precedence over git detection
	Author               string
	Repository           string
	ProgrammingLanguages []string
	TextLanguages        []string
	Frameworks           []string

	Chunking chunk.Options

	Include []string
	Exclude []string

	Embedder embed.Embedder
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	// BuildID uniquely identifies this build, useful for correlating
	// progress log lines emitted across a long-running build.
	BuildID     string
	OutputPath  string
	Manifest    manifest.LibraryManifest
	ChunkCount  int
	SourceCount int
	Duration    time.Duration
}

// Builder runs Build operations. It is stateless and safe for concurrent
// use across independent Build calls.
type Builder struct{}

// New creates a Builder.
func New() *Builder { return &Builder{} }

// Build resolves opts.Source, chunks and embeds its content, and writes a
// finished artifact file, reporting progress via report. report may be
// nil.
func (b *Builder) Build(ctx context.Context, opts BuildOptions, report ProgressFunc) (result *BuildResult, err error) {
	if report == nil {
		report = func(Progress) {}
	}
	if opts.Embedder == nil {
		return nil, libragenerrors.New(libragenerrors.KindInvalidArtifact, "BuildOptions.Embedder is required")
	}

	started := time.Now()
	buildID := uuid.NewString()
	report(Progress{Phase: PhaseInitializing, Progress: 0, Message: fmt.Sprintf("resolving source [build %s]", buildID)})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, provenance, detected, cleanup, err := b.resolveSource(ctx, opts, report)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	destPath := resolveOutputPath(opts, provenance)
	var destWritten bool
	defer func() {
		if err != nil && destWritten {
			_ = os.Remove(destPath)
		}
	}()

	report(Progress{Phase: PhaseLoadingModel, Progress: 20, Message: "preparing embedding model"})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report(Progress{Phase: PhaseChunking, Progress: 25, Message: "chunking source files"})
	chunks, sourceFiles, err := chunkFiles(files, opts.Chunking)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, libragenerrors.New(libragenerrors.KindEmptyIndex, "build produced no chunks")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors, err := b.embedAll(ctx, opts.Embedder, chunks, report)
	if err != nil {
		return nil, err
	}

	report(Progress{Phase: PhaseCreatingDatabase, Progress: 85, Message: "writing artifact"})
	lib, storeChunks, err := b.writeStore(ctx, destPath, opts, provenance, detected, chunks, vectors, opts.Embedder)
	destWritten = true
	if err != nil {
		return nil, err
	}

	report(Progress{Phase: PhaseComplete, Progress: 100, Message: "build complete"})

	return &BuildResult{
		BuildID:     buildID,
		OutputPath:  destPath,
		Manifest:    lib,
		ChunkCount:  storeChunks,
		SourceCount: sourceFiles,
		Duration:    time.Since(started),
	}, nil
}

func (b *Builder) resolveSource(ctx context.Context, opts BuildOptions, report ProgressFunc) ([]source.File, manifest.SourceProvenance, license.Result, func(), error) {
	cleanup := func() {}

	if gitsource.IsGitURL(opts.Source) {
		report(Progress{Phase: PhaseCloning, Progress: 5, Message: fmt.Sprintf("cloning %s", opts.Source)})
		ref, err := gitsource.Clone(ctx, opts.Source, opts.Ref, opts.SubPath)
		if err != nil {
			return nil, manifest.SourceProvenance{}, license.Result{}, cleanup, err
		}
		cleanup = ref.Cleanup

		include := opts.Include
		if patterns := ref.IncludePatterns(); len(patterns) > 0 {
			include = append(append([]string{}, opts.Include...), patterns...)
		}

		files, err := source.Walk(ref.ScanRoot(), source.Options{Include: include, Exclude: opts.Exclude})
		if err != nil {
			cleanup()
			return nil, manifest.SourceProvenance{}, license.Result{}, func() {}, err
		}

		detected := license.Detect(ref.ScanRoot())
		commitHash := resolveCommitHash(ref.Dir)

		prov := manifest.SourceProvenance{
			Type:       "git",
			PathOrURL:  opts.Source,
			Ref:        ref.UsedRef,
			CommitHash: commitHash,
		}
		return files, prov, detected, cleanup, nil
	}

	abs, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, manifest.SourceProvenance{}, license.Result{}, cleanup, libragenerrors.Wrap(libragenerrors.KindIOError, "resolve source path", err)
	}

	files, err := source.Walk(abs, source.Options{Include: opts.Include, Exclude: opts.Exclude})
	if err != nil {
		return nil, manifest.SourceProvenance{}, license.Result{}, cleanup, err
	}

	detected := license.Detect(abs)
	prov := manifest.SourceProvenance{Type: "file", PathOrURL: abs}
	return files, prov, detected, cleanup, nil
}

func resolveCommitHash(dir string) string {
	// best-effort: absent on failure, never fatal to the build
	h, err := gitHeadCommit(dir)
	if err != nil {
		return ""
	}
	return h
}

func chunkFiles(files []source.File, opts chunk.Options) ([]chunkWithFile, int, error) {
	var out []chunkWithFile
	seen := map[string]struct{}{}

	for _, f := range files {
		ext := filepath.Ext(f.RelPath)
		language, supported := chunk.LanguageForExtension(ext)
		if !supported {
			continue
		}
		fileOpts := opts
		if fileOpts.Language == "" {
			fileOpts.Language = language
		}

		pieces := chunk.Split(string(f.Content), language, fileOpts)
		if len(pieces) == 0 {
			continue
		}
		seen[f.RelPath] = struct{}{}
		for _, p := range pieces {
			out = append(out, chunkWithFile{chunk: p, relPath: f.RelPath, language: language})
		}
	}
	return out, len(seen), nil
}

type chunkWithFile struct {
	chunk    chunk.Chunk
	relPath  string
	language string
}

func (b *Builder) embedAll(ctx context.Context, embedder embed.Embedder, chunks []chunkWithFile, report ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	started := time.Now()

	for start := 0; start < len(chunks); start += embeddingBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.chunk.Content)
		}

		batchVecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "embed chunk batch", err)
		}
		copy(vectors[start:end], batchVecs)

		elapsed := time.Since(started).Seconds()
		throughput := 0.0
		if elapsed > 0 {
			throughput = float64(end) / elapsed
		}
		progressPct := 40 + int(45*float64(end)/float64(len(chunks)))
		report(Progress{
			Phase:    PhaseEmbedding,
			Progress: progressPct,
			Message:  fmt.Sprintf("embedded %d/%d chunks (%.1f chunks/sec)", end, len(chunks), throughput),
			Current:  end,
			Total:    len(chunks),
		})
	}

	return vectors, nil
}

func (b *Builder) writeStore(ctx context.Context, destPath string, opts BuildOptions, prov manifest.SourceProvenance, detected license.Result, chunks []chunkWithFile, vectors [][]float32, embedder embed.Embedder) (manifest.LibraryManifest, int, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return manifest.LibraryManifest{}, 0, libragenerrors.Wrap(libragenerrors.KindIOError, "create output directory", err)
	}

	s, err := store.Open(ctx, destPath)
	if err != nil {
		return manifest.LibraryManifest{}, 0, err
	}
	defer s.Close()

	storeChunks := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		storeChunks[i] = store.Chunk{
			Content:    c.chunk.Content,
			Embedding:  vectors[i],
			SourceFile: c.relPath,
			SourceType: prov.Type,
			SourceRef:  prov.Ref,
			StartLine:  c.chunk.StartLine,
			EndLine:    c.chunk.EndLine,
			Language:   c.language,
		}
	}
	if _, err := s.AddChunks(ctx, storeChunks); err != nil {
		return manifest.LibraryManifest{}, 0, err
	}
	if err := s.SetMeta(ctx, "schema_version", fmt.Sprintf("%d", store.CurrentSchemaVersion)); err != nil {
		return manifest.LibraryManifest{}, 0, err
	}

	contentHash, err := s.ContentHash(ctx)
	if err != nil {
		return manifest.LibraryManifest{}, 0, err
	}

	rowCount, err := s.RowCount(ctx)
	if err != nil {
		return manifest.LibraryManifest{}, 0, err
	}
	sourceCount, err := s.SourceCount(ctx)
	if err != nil {
		return manifest.LibraryManifest{}, 0, err
	}

	prov.Licenses = resolveLicenses(opts.License, detected)

	lib := manifest.LibraryManifest{
		Name:                 opts.Name,
		Version:              opts.Version,
		SchemaVersion:        store.CurrentSchemaVersion,
		Description:          opts.Description,
		AgentDescription:     opts.AgentDescription,
		ExampleQueries:       opts.ExampleQueries,
		Keywords:             opts.Keywords,
		ProgrammingLanguages: opts.ProgrammingLanguages,
		TextLanguages:        opts.TextLanguages,
		Frameworks:           opts.Frameworks,
		License:              firstOrEmpty(prov.Licenses),
		Author:               opts.Author,
		Repository:           opts.Repository,
		CreatedAt:            time.Now().UTC(),
		Embedding: manifest.EmbeddingConfig{
			ModelID:    embedder.ModelID(),
			Dimensions: embedder.Dimensions(),
		},
		Chunking: manifest.ChunkingConfig{
			Strategy:     "recursive-character",
			ChunkSize:    opts.Chunking.ChunkSize,
			ChunkOverlap: opts.Chunking.ChunkOverlap,
		},
		Stats:       manifest.Stats{ChunkCount: rowCount, SourceCount: sourceCount},
		ContentHash: "sha256:" + contentHash,
	}

	if err := s.SetMetadata(ctx, lib); err != nil {
		return manifest.LibraryManifest{}, 0, err
	}
	if err := s.Close(); err != nil {
		return manifest.LibraryManifest{}, 0, err
	}

	if info, err := os.Stat(destPath); err == nil {
		lib.Stats.FileSize = info.Size()
	}

	return lib, rowCount, nil
}

func resolveLicenses(explicit string, detected license.Result) []string {
	if explicit != "" {
		return []string{explicit}
	}
	if detected.SPDXID != "" {
		return []string{detected.SPDXID}
	}
	return nil
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// resolveOutputPath applies the output path resolution rules: an explicit
// path ending in ".libragen" is used directly; an explicit directory gets
// "<name>-<version>.libragen" inside it; otherwise a relative
// "<name>-<version>.libragen" in the current directory, except git
// sources with no explicit output default to the platform temp directory.
func resolveOutputPath(opts BuildOptions, prov manifest.SourceProvenance) string {
	defaultName := opts.Name + ".libragen"
	if opts.Version != "" {
		defaultName = fmt.Sprintf("%s-%s.libragen", opts.Name, opts.Version)
	}

	if opts.Output == "" {
		if prov.Type == "git" {
			return filepath.Join(os.TempDir(), defaultName)
		}
		return defaultName
	}

	if filepath.Ext(opts.Output) == ".libragen" {
		return opts.Output
	}

	return filepath.Join(opts.Output, defaultName)
}
