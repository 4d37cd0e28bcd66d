// Package collection implements the Collection Resolver: recursive,
// cycle-safe expansion of a named collection document into the set of
// libraries it installs.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// DefaultMaxDepth bounds collection-of-collection recursion.
const DefaultMaxDepth = 10

// Item is one entry in a Collection's items list. Exactly one of Library
// or Collection is set.
type Item struct {
	Library    string `json:"library,omitempty"`
	Collection string `json:"collection,omitempty"`
	Required   bool   `json:"required,omitempty"`
}

// Document is the collection file format: a JSON document of named items,
// each either a library source URI or a nested collection source URI.
type Document struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
}

// ResolvedLibrary is one library surfaced by resolution, merged across
// every place it was referenced.
type ResolvedLibrary struct {
	Name            string
	Source          string
	Required        bool
	FromCollections []string
}

// Result is the output of Resolve.
type Result struct {
	Required    map[string]ResolvedLibrary
	Optional    map[string]ResolvedLibrary
	Libraries   map[string]ResolvedLibrary // Required ∪ Optional
	Collections []string                   // names in traversal order
}

// Options configures a Resolve call.
type Options struct {
	IncludeOptional bool
	MaxDepth        int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Fetch retrieves raw bytes for a collection source: an HTTP(S) URL or a
// local file path.
func Fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindNetworkError, "build request", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, libragenerrors.Wrap(libragenerrors.KindNetworkError, "fetch collection", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, libragenerrors.New(libragenerrors.KindDownloadError, fmt.Sprintf("fetch %s: status %d", uri, resp.StatusCode))
		}
		return io.ReadAll(resp.Body)
	}
	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "read local collection", err)
	}
	return data, nil
}

// normalizeURI strips trailing slashes and converts backslashes, so the
// visited set keys on a canonical form regardless of how the same source
// was spelled by different referrers.
func normalizeURI(uri string) string {
	uri = strings.ReplaceAll(uri, `\`, "/")
	return strings.TrimRight(uri, "/")
}

// libraryNameFromURI derives a library's display name from its source
// URI: strip query/fragment, take the final path component, drop a
// trailing .libragen or .json extension.
func libraryNameFromURI(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	name := path.Base(uri)
	for _, ext := range []string{".libragen", ".json"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// resolver carries traversal state across recursive calls.
type resolver struct {
	opts        Options
	visited     map[string]struct{}
	libraries   map[string]ResolvedLibrary
	collections []string
	fetch       func(ctx context.Context, uri string) ([]byte, error)
}

// Resolve fetches source and recursively expands it. fetch may be nil to
// use the default Fetch (HTTP[S] or local file).
func Resolve(ctx context.Context, source string, opts Options, fetch func(ctx context.Context, uri string) ([]byte, error)) (*Result, error) {
	if fetch == nil {
		fetch = Fetch
	}
	r := &resolver{
		opts:      opts.withDefaults(),
		visited:   map[string]struct{}{},
		libraries: map[string]ResolvedLibrary{},
		fetch:     fetch,
	}

	if err := r.walk(ctx, source, 0); err != nil {
		return nil, err
	}

	required := map[string]ResolvedLibrary{}
	optional := map[string]ResolvedLibrary{}
	for name, lib := range r.libraries {
		if lib.Required {
			required[name] = lib
		} else {
			optional[name] = lib
		}
	}

	return &Result{
		Required:    required,
		Optional:    optional,
		Libraries:   r.libraries,
		Collections: r.collections,
	}, nil
}

func (r *resolver) walk(ctx context.Context, source string, depth int) error {
	if depth > r.opts.MaxDepth {
		return libragenerrors.New(libragenerrors.KindCollectionDepthExceeded,
			fmt.Sprintf("collection nesting exceeded max depth %d at %s", r.opts.MaxDepth, source))
	}

	key := normalizeURI(source)
	if _, seen := r.visited[key]; seen {
		return nil
	}
	r.visited[key] = struct{}{}

	raw, err := r.fetch(ctx, source)
	if err != nil {
		return err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "parse collection document", err)
	}

	collectionName := doc.Name
	if collectionName == "" {
		collectionName = libraryNameFromURI(source)
	}
	r.collections = append(r.collections, collectionName)

	for _, item := range doc.Items {
		switch {
		case item.Library != "":
			r.mergeLibrary(item.Library, item.Required, collectionName)
		case item.Collection != "":
			if !r.opts.IncludeOptional && !item.Required {
				continue
			}
			if err := r.walk(ctx, item.Collection, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *resolver) mergeLibrary(source string, required bool, fromCollection string) {
	name := libraryNameFromURI(source)
	existing, ok := r.libraries[name]
	if !ok {
		r.libraries[name] = ResolvedLibrary{
			Name:            name,
			Source:          source,
			Required:        required,
			FromCollections: []string{fromCollection},
		}
		return
	}

	existing.Required = existing.Required || required
	found := false
	for _, c := range existing.FromCollections {
		if c == fromCollection {
			found = true
			break
		}
	}
	if !found {
		existing.FromCollections = append(existing.FromCollections, fromCollection)
	}
	r.libraries[name] = existing
}
