// Package library is the public entry point for opening, searching, and
// building libragen libraries. It wraps the internal store, search, and
// indexer packages behind a small stable surface.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/libragen/libragen/internal/embed"
	libragenerrors "github.com/libragen/libragen/internal/errors"
	"github.com/libragen/libragen/internal/indexer"
	"github.com/libragen/libragen/internal/manifest"
	"github.com/libragen/libragen/internal/search"
	"github.com/libragen/libragen/internal/store"
)

// ErrClosed is returned by any operation attempted on a Library after
// Close has been called.
var ErrClosed = errors.New("library: already closed")

// Library is a single opened artifact: it owns the underlying Store for
// its lifetime and exposes search over its contents.
//
// A Library is safe for concurrent use. All methods may be called from
// multiple goroutines simultaneously.
type Library struct {
	mu     sync.RWMutex
	store  *store.Store
	engine *search.Engine
	path   string
	closed bool
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	embedder embed.Embedder
	reranker embed.Reranker
}

// WithEmbedder sets the Embedder used to vectorize search queries. If
// omitted, Open uses embed.NewStaticEmbedder.
func WithEmbedder(e embed.Embedder) Option {
	return func(c *openConfig) { c.embedder = e }
}

// WithReranker sets an optional Reranker applied to search candidates.
func WithReranker(r embed.Reranker) Option {
	return func(c *openConfig) { c.reranker = r }
}

// Open opens the artifact file at path for reading and searching.
func Open(ctx context.Context, path string, opts ...Option) (*Library, error) {
	cfg := &openConfig{embedder: embed.NewStaticEmbedder()}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.embedder = embed.NewCachedEmbedder(cfg.embedder, embed.DefaultCacheSize)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open library: %w", libragenerrors.Wrap(libragenerrors.KindNotFound, "stat artifact file", err))
	}

	s, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	engine := search.New(s, cfg.embedder, cfg.reranker)

	return &Library{store: s, engine: engine, path: path}, nil
}

// Manifest returns the library's metadata record.
func (l *Library) Manifest(ctx context.Context) (manifest.LibraryManifest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return manifest.LibraryManifest{}, ErrClosed
	}

	var m manifest.LibraryManifest
	if err := l.store.GetMetadata(ctx, &m); err != nil {
		return manifest.LibraryManifest{}, err
	}
	return m, nil
}

// Search runs a hybrid/keyword/vector search over the library's contents.
func (l *Library) Search(ctx context.Context, opts search.Options) ([]search.Result, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	return l.engine.Search(ctx, opts)
}

// Path returns the on-disk path this Library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Close releases the underlying Store handle. Close is idempotent.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.store.Close()
}

// Build runs the Indexer to produce a new artifact file, returning an
// already-opened Library over the result.
func Build(ctx context.Context, opts indexer.BuildOptions, report indexer.ProgressFunc, libOpts ...Option) (*Library, *indexer.BuildResult, error) {
	b := indexer.New()
	result, err := b.Build(ctx, opts, report)
	if err != nil {
		return nil, nil, err
	}

	lib, err := Open(ctx, result.OutputPath, libOpts...)
	if err != nil {
		return nil, result, err
	}
	return lib, result, nil
}
