// Package pkgmanager implements the package manager: multi-location
// library discovery, install/uninstall of libraries and collections, and
// the reference-counted manifest.json lifecycle.
package pkgmanager

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/libragen/libragen/internal/libhome"
	"github.com/libragen/libragen/internal/manifest"
	"github.com/libragen/libragen/internal/store"
)

// DiscoveredLibrary is one artifact file found while scanning the
// configured library directories.
type DiscoveredLibrary struct {
	Name           string
	Version        string
	ContentVersion string
	Description    string
	Path           string
	Location       string // "global" or "project"
	Metadata       manifest.LibraryManifest
}

// Manager owns the persistent Manifest and the ordered list of library
// directories it discovers and installs into.
type Manager struct {
	dirs         []string
	manifestPath string
}

// New creates a Manager. A non-empty dirs replaces the default ordering
// (project-local .libragen/libraries, then the platform global
// directory) entirely; an empty dirs uses that default ordering.
func New(dirs []string) *Manager {
	if len(dirs) == 0 {
		dirs = libhome.DefaultLibraryDirs()
	}
	return &Manager{dirs: dirs, manifestPath: libhome.ManifestPath()}
}

// PrimaryDir is the first configured library directory: new installs
// land there.
func (m *Manager) PrimaryDir() string {
	return m.dirs[0]
}

// Discover scans every configured directory in order and yields one
// DiscoveredLibrary per distinct manifest name, first-match-by-name
// winning across directories. Results are sorted lexicographically by
// name.
func (m *Manager) Discover(ctx context.Context) ([]DiscoveredLibrary, error) {
	seen := map[string]struct{}{}
	var out []DiscoveredLibrary

	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".libragen") {
				continue
			}
			path := filepath.Join(dir, entry.Name())

			lib, err := readLibraryManifest(ctx, path)
			if err != nil {
				continue // unreadable/corrupt artifact: skip rather than abort discovery
			}
			if _, dup := seen[lib.Name]; dup {
				continue
			}
			seen[lib.Name] = struct{}{}

			out = append(out, DiscoveredLibrary{
				Name:           lib.Name,
				Version:        lib.Version,
				ContentVersion: lib.ContentVersion,
				Description:    lib.Description,
				Path:           path,
				Location:       m.locationLabel(dir),
				Metadata:       lib,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Manager) locationLabel(dir string) string {
	return libhome.LocationLabel(dir)
}

// resolveByName finds the on-disk file for name: either an exact
// "<name>.libragen" or the lexicographically-last "<name>-*.libragen"
// across all configured directories (first directory with any match
// wins, per discovery's first-match-by-name rule).
func (m *Manager) resolveByName(name string) (string, bool) {
	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		exact := filepath.Join(dir, name+".libragen")
		if fileExists(exact) {
			return exact, true
		}

		var candidates []string
		prefix := name + "-"
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			n := entry.Name()
			if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, ".libragen") {
				candidates = append(candidates, n)
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return filepath.Join(dir, candidates[len(candidates)-1]), true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readLibraryManifest(ctx context.Context, path string) (manifest.LibraryManifest, error) {
	var lib manifest.LibraryManifest

	s, err := store.Open(ctx, path)
	if err != nil {
		return lib, err
	}
	defer s.Close()

	err = s.GetMetadata(ctx, &lib)
	return lib, err
}
