// Package gitsource implements the git source adapter: shallow-cloning a
// remote repository (or a ref/sub-path within it) into a temporary
// directory that is handed to the local file walker, with cleanup owned
// by the caller.
package gitsource

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// hostPattern matches a bare host component (github.com, gitlab.com,
// bitbucket.org, or anything else treated as a custom host) to identify
// the token environment variable to try.
var hostPattern = regexp.MustCompile(`^(?:https?://|git@)([^/:]+)`)

// Ref describes where a clone landed: the temporary directory to scan and
// the function that removes it.
type Ref struct {
	Dir     string
	SubPath string
	// UsedRef is the branch/tag actually cloned, whether it came from an
	// explicit option or was extracted from a tree/blob URL.
	UsedRef string
	// FileInclude is set when SubPath names a single file rather than a
	// directory; ScanRoot then points at its containing directory and
	// callers must add FileInclude to their include patterns.
	FileInclude string
	cleanup     func()
}

// Cleanup removes the temporary clone directory. Safe to call multiple
// times.
func (r *Ref) Cleanup() {
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// ScanRoot is the directory the file walker should scan: the clone
// directory joined with SubPath, or its parent when SubPath names a
// single file.
func (r *Ref) ScanRoot() string {
	if r.SubPath == "" {
		return r.Dir
	}
	if r.FileInclude != "" {
		return filepath.Join(r.Dir, filepath.Dir(filepath.FromSlash(r.SubPath)))
	}
	return filepath.Join(r.Dir, r.SubPath)
}

// IncludePatterns returns the extra glob include pattern needed to scope
// the walk to a single file, or nil when SubPath is a directory (or
// absent).
func (r *Ref) IncludePatterns() []string {
	if r.FileInclude == "" {
		return nil
	}
	return []string{r.FileInclude}
}

// IsGitURL reports whether uri looks like a remote git repository rather
// than a local filesystem path.
func IsGitURL(uri string) bool {
	return strings.HasPrefix(uri, "http://") ||
		strings.HasPrefix(uri, "https://") ||
		strings.HasPrefix(uri, "git@") ||
		strings.HasSuffix(uri, ".git")
}

// Clone performs a shallow (depth 1) clone of a repository at a ref
// (branch, tag, or empty for the default branch) into a fresh temporary
// directory. rawURL may be a plain repository URL or a provider tree/blob
// URL (see ParseGitURL); ref and subPath, when non-empty, override
// whatever the URL itself names.
func Clone(ctx context.Context, rawURL, ref, subPath string) (*Ref, error) {
	parsed := ParseGitURL(rawURL)

	cloneURL := parsed.RepoURL
	usedRef := parsed.Ref
	if ref != "" {
		usedRef = ref
	}

	usedSubPath := parsed.SubPath
	fileInclude := ""
	if parsed.IsFile && usedSubPath != "" {
		fileInclude = path.Base(filepath.ToSlash(usedSubPath))
	}
	if subPath != "" {
		usedSubPath = subPath
		fileInclude = ""
	}

	dir, err := os.MkdirTemp("", "libragen-clone-*")
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "create clone temp dir", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	opts := &git.CloneOptions{
		URL:          cloneURL,
		Depth:        1,
		SingleBranch: true,
	}
	if usedRef != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(usedRef)
	}
	if auth := resolveAuth(cloneURL); auth != nil {
		opts.Auth = auth
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		cleanup()
		return nil, libragenerrors.Wrap(libragenerrors.KindDownloadError, fmt.Sprintf("clone %s", cloneURL), err)
	}

	return &Ref{Dir: dir, SubPath: usedSubPath, UsedRef: usedRef, FileInclude: fileInclude, cleanup: cleanup}, nil
}

// resolveAuth picks a bearer token from the environment based on the
// repository host, trying the most specific variable first.
func resolveAuth(repoURL string) *http.BasicAuth {
	host := hostOf(repoURL)

	var candidates []string
	switch {
	case strings.Contains(host, "github"):
		candidates = []string{"GITHUB_TOKEN"}
	case strings.Contains(host, "gitlab"):
		candidates = []string{"GITLAB_TOKEN", "GL_TOKEN"}
	case strings.Contains(host, "bitbucket"):
		candidates = []string{"BITBUCKET_TOKEN"}
	default:
		candidates = []string{"GIT_TOKEN"}
	}
	candidates = append(candidates, "GIT_TOKEN")

	for _, name := range candidates {
		if token := os.Getenv(name); token != "" {
			return &http.BasicAuth{Username: "x-access-token", Password: token}
		}
	}
	return nil
}

func hostOf(repoURL string) string {
	if m := hostPattern.FindStringSubmatch(repoURL); len(m) == 2 {
		return strings.ToLower(m[1])
	}
	if u, err := url.Parse(repoURL); err == nil {
		return strings.ToLower(u.Host)
	}
	return ""
}
