package gitsource

import (
	"net/url"
	"path"
	"strings"
)

// ParsedURL is the decomposition of a provider tree/blob URL into a plain
// clone URL plus the ref and sub-path it names.
type ParsedURL struct {
	RepoURL string
	Ref     string
	SubPath string
	IsFile  bool // true when SubPath names a single file rather than a directory
}

// ParseGitURL extracts (repoURL, ref, subPath) from a GitHub/GitLab "tree"
// or "blob" URL, or a Bitbucket "src" URL, e.g.
// https://github.com/org/repo/tree/main/internal/foo or
// https://github.com/org/repo/blob/main/README.md. URLs with no such
// segment (plain repository URLs, SSH URLs, bare .git URLs) are returned
// unchanged with no ref or sub-path.
func ParseGitURL(raw string) ParsedURL {
	if strings.HasPrefix(raw, "git@") || !strings.Contains(raw, "://") {
		return ParsedURL{RepoURL: raw}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURL{RepoURL: raw}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ParsedURL{RepoURL: raw}
	}

	owner, repo := segments[0], strings.TrimSuffix(segments[1], ".git")
	rest := segments[2:]

	markerIdx, markerKind := locateMarker(u.Host, rest)

	repoURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: path.Join("/", owner, repo)}).String()
	if markerIdx < 0 || markerIdx+1 >= len(rest) {
		return ParsedURL{RepoURL: repoURL}
	}

	ref := rest[markerIdx+1]
	subParts := rest[markerIdx+2:]
	if len(subParts) == 0 {
		return ParsedURL{RepoURL: repoURL, Ref: ref}
	}

	subPath := strings.Join(subParts, "/")
	isFile := markerKind == "blob" || (markerKind == "src" && looksLikeFile(subParts[len(subParts)-1]))

	return ParsedURL{RepoURL: repoURL, Ref: ref, SubPath: subPath, IsFile: isFile}
}

// locateMarker finds the "tree"/"blob" (GitHub, GitLab, and any other
// host) or "src" (Bitbucket) path segment separating the repository from
// its ref and sub-path.
func locateMarker(host string, rest []string) (idx int, kind string) {
	wantSrc := strings.Contains(host, "bitbucket")
	for i, seg := range rest {
		if wantSrc && seg == "src" {
			return i, "src"
		}
		if !wantSrc && (seg == "tree" || seg == "blob") {
			return i, seg
		}
	}
	return -1, ""
}

func looksLikeFile(lastSegment string) bool {
	ext := path.Ext(lastSegment)
	return ext != ""
}
