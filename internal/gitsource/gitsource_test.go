package gitsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitURL(t *testing.T) {
	assert.True(t, IsGitURL("https://github.com/org/repo"))
	assert.True(t, IsGitURL("git@github.com:org/repo.git"))
	assert.True(t, IsGitURL("https://example.com/org/repo.git"))
	assert.False(t, IsGitURL("/home/user/project"))
	assert.False(t, IsGitURL("./relative/path"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "github.com", hostOf("https://github.com/org/repo"))
	assert.Equal(t, "github.com", hostOf("git@github.com:org/repo.git"))
	assert.Equal(t, "gitlab.example.com", hostOf("https://gitlab.example.com/org/repo.git"))
}

func TestResolveAuthPrefersHostSpecificToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GIT_TOKEN", "generic-token")

	auth := resolveAuth("https://github.com/org/repo")
	require.NotNil(t, auth)
	assert.Equal(t, "gh-token", auth.Password)
}

func TestResolveAuthFallsBackToGenericToken(t *testing.T) {
	os.Unsetenv("GITHUB_TOKEN")
	t.Setenv("GIT_TOKEN", "generic-token")

	auth := resolveAuth("https://example.com/org/repo.git")
	require.NotNil(t, auth)
	assert.Equal(t, "generic-token", auth.Password)
}

func TestResolveAuthNilWithoutToken(t *testing.T) {
	for _, k := range []string{"GITHUB_TOKEN", "GITLAB_TOKEN", "GL_TOKEN", "BITBUCKET_TOKEN", "GIT_TOKEN"} {
		os.Unsetenv(k)
	}
	assert.Nil(t, resolveAuth("https://github.com/org/repo"))
}

func TestRefScanRootJoinsSubPath(t *testing.T) {
	r := &Ref{Dir: "/tmp/clone", SubPath: "docs"}
	assert.Equal(t, filepath.Join("/tmp/clone", "docs"), r.ScanRoot())

	r2 := &Ref{Dir: "/tmp/clone"}
	assert.Equal(t, "/tmp/clone", r2.ScanRoot())
}

func TestRefCleanupIsIdempotent(t *testing.T) {
	called := 0
	r := &Ref{Dir: "/tmp/clone", cleanup: func() { called++ }}
	r.Cleanup()
	r.Cleanup()
	assert.Equal(t, 1, called)
}
