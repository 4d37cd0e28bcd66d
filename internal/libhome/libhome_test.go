package libhome_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/libragen/libragen/internal/libhome"
)

func TestDirHonorsEnvOverride(t *testing.T) {
	t.Setenv(libhome.EnvHome, "/tmp/custom-libragen-home")
	assert.Equal(t, "/tmp/custom-libragen-home", libhome.Dir())
}

func TestGlobalLibrariesDirIsUnderHome(t *testing.T) {
	t.Setenv(libhome.EnvHome, "/tmp/custom-libragen-home")
	assert.Equal(t, filepath.Join("/tmp/custom-libragen-home", "libraries"), libhome.GlobalLibrariesDir())
}

func TestLocationLabel(t *testing.T) {
	t.Setenv(libhome.EnvHome, "/tmp/custom-libragen-home")
	assert.Equal(t, "global", libhome.LocationLabel(libhome.GlobalLibrariesDir()))
	assert.Equal(t, "project", libhome.LocationLabel("/some/other/dir"))
}

func TestModelCacheDirHonorsOverride(t *testing.T) {
	t.Setenv(libhome.EnvModelCache, "/tmp/model-cache")
	assert.Equal(t, "/tmp/model-cache", libhome.ModelCacheDir())
}

func TestDefaultLibraryDirsAlwaysIncludesGlobal(t *testing.T) {
	t.Setenv(libhome.EnvHome, "/tmp/custom-libragen-home")
	dirs := libhome.DefaultLibraryDirs()
	assert.Contains(t, dirs, libhome.GlobalLibrariesDir())
}
