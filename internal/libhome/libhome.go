// Package libhome resolves the libragen home directory and the per-project
// and per-user library search locations, following the platform
// conventions described in the libragen external interfaces spec.
package libhome

import (
	"os"
	"path/filepath"
	"runtime"
)

// EnvHome overrides the base libragen home directory.
const EnvHome = "LIBRAGEN_HOME"

// EnvModelCache overrides the embedder/reranker model cache directory.
const EnvModelCache = "LIBRAGEN_MODEL_CACHE"

// ProjectLibrariesDir is the project-local library directory name, resolved
// relative to the current working directory.
const ProjectLibrariesDir = ".libragen/libraries"

// Dir returns the libragen home directory: $LIBRAGEN_HOME if set, otherwise
// a platform-specific default.
//
//   - macOS:   ~/Library/Application Support/libragen
//   - Windows: %APPDATA%\libragen
//   - other:   $XDG_DATA_HOME/libragen, else ~/.local/share/libragen
func Dir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	return defaultDataDir()
}

func defaultDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "libragen")
		}
		return filepath.Join(home, "Library", "Application Support", "libragen")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "libragen")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "libragen")
		}
		return filepath.Join(home, "AppData", "Roaming", "libragen")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "libragen")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "libragen")
		}
		return filepath.Join(home, ".local", "share", "libragen")
	}
}

// GlobalLibrariesDir returns the default global library directory,
// Dir()/libraries.
func GlobalLibrariesDir() string {
	return filepath.Join(Dir(), "libraries")
}

// ManifestPath returns the path to the persistent install manifest.
func ManifestPath() string {
	return filepath.Join(Dir(), "manifest.json")
}

// CollectionsConfigPath returns the path to collections.json.
func CollectionsConfigPath() string {
	return filepath.Join(Dir(), "collections.json")
}

// CacheDir returns Dir()/cache.
func CacheDir() string {
	return filepath.Join(Dir(), "cache")
}

// ModelCacheDir returns $LIBRAGEN_MODEL_CACHE if set, otherwise Dir()/models.
func ModelCacheDir() string {
	if cache := os.Getenv(EnvModelCache); cache != "" {
		return cache
	}
	return filepath.Join(Dir(), "models")
}

// DefaultLibraryDirs returns the default ordered list of library
// directories: the project-local directory (if it exists) under cwd,
// followed by the global directory.
func DefaultLibraryDirs() []string {
	var dirs []string

	if cwd, err := os.Getwd(); err == nil {
		projectDir := filepath.Join(cwd, ProjectLibrariesDir)
		if info, statErr := os.Stat(projectDir); statErr == nil && info.IsDir() {
			dirs = append(dirs, projectDir)
		}
	}

	dirs = append(dirs, GlobalLibrariesDir())
	return dirs
}

// LocationLabel classifies a library directory as "global" (the default
// global directory) or "project" (anything else, including a caller-
// supplied explicit path).
func LocationLabel(dir string) string {
	if filepath.Clean(dir) == filepath.Clean(GlobalLibrariesDir()) {
		return "global"
	}
	return "project"
}
