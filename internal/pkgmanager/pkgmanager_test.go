package pkgmanager_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libragenerrors "github.com/libragen/libragen/internal/errors"
	"github.com/libragen/libragen/internal/manifest"
	"github.com/libragen/libragen/internal/pkgmanager"
	"github.com/libragen/libragen/internal/store"
)

func buildTestArtifact(t *testing.T, path, name, version string) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.AddChunk(ctx, store.Chunk{
		Content: "hello world", Embedding: []float32{1, 0}, SourceFile: "a.txt", SourceType: "file",
	})
	require.NoError(t, err)

	require.NoError(t, s.SetMetadata(ctx, manifest.LibraryManifest{
		Name: name, Version: version, SchemaVersion: store.CurrentSchemaVersion, CreatedAt: time.Now().UTC(),
	}))
}

func TestInstallThenDiscover(t *testing.T) {
	ctx := context.Background()
	libDir := t.TempDir()
	sourcePath := filepath.Join(t.TempDir(), "source.libragen")
	buildTestArtifact(t, sourcePath, "acme", "1.0.0")

	t.Setenv("LIBRAGEN_HOME", t.TempDir())
	m := pkgmanager.New([]string{libDir})

	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{}))

	libs, err := m.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, "acme", libs[0].Name)
	assert.Equal(t, "1.0.0", libs[0].Version)
}

func TestInstallTwiceWithoutForceFails(t *testing.T) {
	ctx := context.Background()
	libDir := t.TempDir()
	sourcePath := filepath.Join(t.TempDir(), "source.libragen")
	buildTestArtifact(t, sourcePath, "acme", "1.0.0")

	t.Setenv("LIBRAGEN_HOME", t.TempDir())
	m := pkgmanager.New([]string{libDir})
	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{}))

	err := m.Install(ctx, sourcePath, pkgmanager.InstallOptions{})
	require.Error(t, err)
	assert.True(t, libragenerrors.Is(err, libragenerrors.KindAlreadyInstalled))
}

func TestInstallWithForceOverwrites(t *testing.T) {
	ctx := context.Background()
	libDir := t.TempDir()
	sourcePath := filepath.Join(t.TempDir(), "source.libragen")
	buildTestArtifact(t, sourcePath, "acme", "1.0.0")

	t.Setenv("LIBRAGEN_HOME", t.TempDir())
	m := pkgmanager.New([]string{libDir})
	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{}))
	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{Force: true}))
}

func TestUninstallManualRemovesFile(t *testing.T) {
	ctx := context.Background()
	libDir := t.TempDir()
	sourcePath := filepath.Join(t.TempDir(), "source.libragen")
	buildTestArtifact(t, sourcePath, "acme", "1.0.0")

	t.Setenv("LIBRAGEN_HOME", t.TempDir())
	m := pkgmanager.New([]string{libDir})
	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{}))
	require.NoError(t, m.Uninstall(ctx, "acme"))

	libs, err := m.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, libs)
}

func TestUninstallKeepsFileWhileCollectionReferencesRemain(t *testing.T) {
	ctx := context.Background()
	libDir := t.TempDir()
	sourcePath := filepath.Join(t.TempDir(), "source.libragen")
	buildTestArtifact(t, sourcePath, "acme", "1.0.0")

	t.Setenv("LIBRAGEN_HOME", t.TempDir())
	m := pkgmanager.New([]string{libDir})
	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{}))
	require.NoError(t, m.Install(ctx, sourcePath, pkgmanager.InstallOptions{Force: true, CollectionName: "pack-a"}))

	require.NoError(t, m.Uninstall(ctx, "acme"))

	libs, err := m.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, libs, 1)
}
