package pkgmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/libragen/libragen/internal/collection"
	libragenerrors "github.com/libragen/libragen/internal/errors"
	"github.com/libragen/libragen/internal/manifest"
)

// maxConcurrentInstalls bounds how many libraries are fetched and
// installed at once from a single collection, so a large collection
// doesn't open unbounded concurrent downloads and file handles.
const maxConcurrentInstalls = 4

// InstallCollectionOptions configures InstallCollection.
type InstallCollectionOptions struct {
	Force           bool
	IncludeOptional bool
	MaxDepth        int
}

// CollectionInstallReport tallies per-library outcomes of a collection
// install: the batch never aborts on a single library's failure.
type CollectionInstallReport struct {
	Installed []string
	Skipped   []string
	Failed    map[string]error
}

// InstallCollection resolves source into a set of libraries, then
// downloads and installs each required library (plus optional ones when
// requested) concurrently, recording successes, already-installed skips,
// and per-library failures without aborting the batch. source may be a
// bare collection.json (local path or URL) or a packed
// *.libragen-collection archive, which is extracted to a scratch
// directory first.
func (m *Manager) InstallCollection(ctx context.Context, source string, opts InstallCollectionOptions) (*CollectionInstallReport, error) {
	resolveSource := source
	fetch := collection.Fetch

	if isPackedCollection(source) {
		scratch, cleanup, err := extractPackedCollection(source)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		resolveSource = filepath.Join(scratch, packedCollectionDocName)
		fetch = packedFetch(scratch)
	}

	result, err := collection.Resolve(ctx, resolveSource, collection.Options{
		IncludeOptional: opts.IncludeOptional,
		MaxDepth:        opts.MaxDepth,
	}, fetch)
	if err != nil {
		return nil, err
	}

	toInstall := result.Required
	if opts.IncludeOptional {
		toInstall = result.Libraries
	}

	report := &CollectionInstallReport{Failed: map[string]error{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInstalls)
	collectionName := source
	if len(result.Collections) > 0 {
		collectionName = result.Collections[0]
	}

	for _, lib := range toInstall {
		lib := lib
		g.Go(func() error {
			err := m.installOneCollectionLibrary(gctx, lib, collectionName, opts.Force, fetch)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Installed = append(report.Installed, lib.Name)
			case libragenerrors.Is(err, libragenerrors.KindAlreadyInstalled):
				report.Skipped = append(report.Skipped, lib.Name)
			default:
				report.Failed[lib.Name] = err
			}
			return nil // per-library failures never abort the batch
		})
	}
	_ = g.Wait() // errors are captured per-library above, never returned by a goroutine

	err = manifest.Mutate(m.manifestPath, func(doc *manifest.Document) error {
		doc.AddCollection(manifest.InstalledCollectionRecord{
			Name:        collectionName,
			Source:      source,
			Libraries:   namesOf(toInstall),
			Collections: result.Collections,
		})
		return nil
	})
	if err != nil {
		return report, err
	}

	return report, nil
}

func namesOf(libs map[string]collection.ResolvedLibrary) []string {
	names := make([]string, 0, len(libs))
	for name := range libs {
		names = append(names, name)
	}
	return names
}

func (m *Manager) installOneCollectionLibrary(ctx context.Context, lib collection.ResolvedLibrary, collectionName string, force bool, fetch func(ctx context.Context, uri string) ([]byte, error)) error {
	raw, err := fetch(ctx, lib.Source)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "libragen-fetch-*.libragen")
	if err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "create temp download file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return libragenerrors.Wrap(libragenerrors.KindIOError, "write temp download file", err)
	}
	if err := tmp.Close(); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "close temp download file", err)
	}

	if _, err := readLibraryManifest(ctx, tmpPath); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, fmt.Sprintf("validate downloaded artifact for %s", lib.Name), err)
	}

	return m.Install(ctx, tmpPath, InstallOptions{Force: force, CollectionName: collectionName})
}

// UninstallCollection removes the collection's record; any library whose
// reference set becomes empty as a result is physically deleted too. The
// manifest record for those libraries is already gone by the time
// RemoveCollection returns them, so deletion goes straight to disk rather
// than through Uninstall (which would find no record left to remove).
func (m *Manager) UninstallCollection(ctx context.Context, name string) error {
	var orphaned []string
	err := manifest.Mutate(m.manifestPath, func(doc *manifest.Document) error {
		orphaned = doc.RemoveCollection(name)
		return nil
	})
	if err != nil {
		return err
	}

	for _, libName := range orphaned {
		path, ok := m.resolveByName(libName)
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return libragenerrors.Wrap(libragenerrors.KindIOError, "remove orphaned artifact file", err)
		}
	}
	return nil
}
