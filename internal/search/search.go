// Package search implements hybrid retrieval over an artifact store:
// query embedding, strategy selection by hybridAlpha, deduplication,
// optional reranking, and optional adjacent-chunk context expansion.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/libragen/libragen/internal/embed"
	"github.com/libragen/libragen/internal/store"
)

// DefaultK is applied when Options.K is unset. DefaultHybridAlpha is not
// applied to an unset Options.HybridAlpha (see Options); it is the default
// of the cmd/libragen --alpha flag.
const (
	DefaultK           = 10
	DefaultHybridAlpha = 0.5
)

// Options configures a single Search call. HybridAlpha has no zero-value
// default: 0 is itself a meaningful value ("keyword-only"), so callers
// wanting the default balanced search must set HybridAlpha explicitly to
// DefaultHybridAlpha (the cmd/libragen CLI flag does this).
type Options struct {
	Query          string
	K              int
	HybridAlpha    float64
	Rerank         bool
	ContentVersion string
	ContextBefore  int
	ContextAfter   int
}

// Result is one ranked hit with its chunk and score, plus any attached
// context chunks.
type Result struct {
	Chunk         store.Chunk
	Score         float64
	ContextBefore []store.Chunk
	ContextAfter  []store.Chunk
}

// Store is the subset of *store.Store the engine depends on.
type Store interface {
	VectorSearch(ctx context.Context, queryVec []float32, k int, filter store.Filter) ([]store.Result, error)
	KeywordSearch(ctx context.Context, queryText string, k int, filter store.Filter) ([]store.Result, error)
	HybridSearch(ctx context.Context, queryVec []float32, queryText string, k int, filter store.Filter) ([]store.Result, error)
	GetAdjacentChunks(ctx context.Context, refID int64, before, after int) ([]store.Chunk, []store.Chunk, error)
}

// Engine runs searches against a Store without mutating it.
type Engine struct {
	store    Store
	embedder embed.Embedder
	reranker embed.Reranker
}

// New creates an Engine. reranker may be nil; a nil reranker with
// Rerank=true behaves as if Rerank were false.
func New(s Store, embedder embed.Embedder, reranker embed.Reranker) *Engine {
	return &Engine{store: s, embedder: embedder, reranker: reranker}
}

// Search runs the hybrid search algorithm and returns up to opts.K
// results.
func (e *Engine) Search(ctx context.Context, opts Options) ([]Result, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, nil
	}

	k := opts.K
	if k <= 0 {
		k = DefaultK
	}
	alpha := opts.HybridAlpha

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidateK := k * 2
	rerank := opts.Rerank && e.reranker != nil
	if rerank {
		candidateK = k * 5
	}

	filter := store.Filter{ContentVersion: opts.ContentVersion}

	var candidates []store.Result
	switch {
	case alpha == 0:
		candidates, err = e.store.KeywordSearch(ctx, query, candidateK, filter)
	case alpha == 1:
		candidates, err = e.store.VectorSearch(ctx, queryVec, candidateK, filter)
	default:
		candidates, err = e.store.HybridSearch(ctx, queryVec, query, candidateK, filter)
	}
	if err != nil {
		return nil, err
	}

	dedupCap := k
	if rerank {
		dedupCap = k * 3
	}
	deduped := dedupe(candidates, dedupCap)

	results := make([]Result, len(deduped))
	for i, r := range deduped {
		results[i] = Result{Chunk: r.Chunk, Score: r.Score}
	}

	if rerank {
		results, err = e.rerankResults(ctx, query, results)
		if err != nil {
			return nil, err
		}
	}
	if len(results) > k {
		results = results[:k]
	}

	if opts.ContextBefore > 0 || opts.ContextAfter > 0 {
		for i := range results {
			before, after, err := e.store.GetAdjacentChunks(ctx, results[i].Chunk.ID, opts.ContextBefore, opts.ContextAfter)
			if err != nil {
				return nil, err
			}
			results[i].ContextBefore = before
			results[i].ContextAfter = after
		}
	}

	return results, nil
}

// dedupeKey is (sourceFile, startLine-or-"unknown").
func dedupeKey(c store.Chunk) string {
	if c.StartLine == 0 {
		return c.SourceFile + "\x00unknown"
	}
	return fmt.Sprintf("%s\x00%d", c.SourceFile, c.StartLine)
}

func dedupe(results []store.Result, cap int) []store.Result {
	seen := map[string]struct{}{}
	out := make([]store.Result, 0, len(results))
	for _, r := range results {
		key := dedupeKey(r.Chunk)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
		if len(out) >= cap {
			break
		}
	}
	return out
}

func (e *Engine) rerankResults(ctx context.Context, query string, results []Result) ([]Result, error) {
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Chunk.Content
	}
	scores, err := e.reranker.Score(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("rerank results: %w", err)
	}
	for i := range results {
		results[i].Score = scores[i]
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
