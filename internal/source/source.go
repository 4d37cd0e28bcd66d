// Package source implements the local-filesystem source adapter: walking a
// directory tree under glob include/exclude rules, skipping oversized or
// non-UTF-8 files, and handing back a flat list of files ready for the
// chunker.
package source

import (
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/gobwas/glob"
)

// MaxFileSize is the per-file size ceiling; larger files are skipped and
// logged rather than erroring the whole build.
const MaxFileSize = 1 << 20 // 1 MiB

// defaultExcludePatterns are always applied in addition to any
// caller-supplied exclude patterns.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/.libragen/**",
	"**/*.libragen",
	"**/*.libragen-collection",
}

// File is one discovered file ready to be chunked.
type File struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the scanned root, slash-separated
	Content []byte
}

// Options configures a Walk.
type Options struct {
	Include []string // glob patterns; empty means "everything not excluded"
	Exclude []string // additional exclude patterns, merged with the defaults
}

// Walk scans root and returns every file that passes the include/exclude
// rules, is at or under MaxFileSize, and is valid UTF-8. Files failing any
// of those checks are skipped and logged, not treated as a fatal error.
func Walk(root string, opts Options) ([]File, error) {
	includes, err := compileGlobs(opts.Include)
	if err != nil {
		return nil, err
	}
	excludes, err := compileGlobs(append(append([]string{}, defaultExcludePatterns...), opts.Exclude...))
	if err != nil {
		return nil, err
	}

	var files []File
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if matchesAny(relPath, excludes) {
			return nil
		}
		if len(includes) > 0 && !matchesAny(relPath, includes) {
			return nil
		}

		if info.Size() > MaxFileSize {
			slog.Warn("skipping oversized file", slog.String("path", relPath), slog.Int64("size", info.Size()))
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file", slog.String("path", relPath), slog.String("error", err.Error()))
			return nil
		}
		if !utf8.Valid(content) {
			slog.Warn("skipping non-utf8 file", slog.String("path", relPath))
			return nil
		}

		files = append(files, File{Path: path, RelPath: relPath, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchesAny(path string, globs []glob.Glob) bool {
	for _, g := range globs {
		// The "/"-prefixed form lets "**/x" patterns match x at the root too.
		if g.Match(path) || g.Match("/"+path) {
			return true
		}
	}
	return false
}
