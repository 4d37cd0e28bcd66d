package pkgmanager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	libragenerrors "github.com/libragen/libragen/internal/errors"
	"github.com/libragen/libragen/internal/manifest"
)

// InstallOptions configures Install.
type InstallOptions struct {
	Force          bool
	CollectionName string
}

// Install copies the artifact at sourcePath into the primary library
// directory, named "<name>-<version>.libragen" (or "<name>.libragen" if
// the manifest carries no version), and records it in the persistent
// manifest.
func (m *Manager) Install(ctx context.Context, sourcePath string, opts InstallOptions) error {
	lib, err := readLibraryManifest(ctx, sourcePath)
	if err != nil {
		return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "read source manifest", err)
	}

	destName := lib.Name + ".libragen"
	if lib.Version != "" {
		destName = fmt.Sprintf("%s-%s.libragen", lib.Name, lib.Version)
	}
	destPath := filepath.Join(m.PrimaryDir(), destName)

	if fileExists(destPath) && !opts.Force {
		return libragenerrors.New(libragenerrors.KindAlreadyInstalled,
			fmt.Sprintf("%s is already installed at %s", lib.Name, destPath))
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "create library directory", err)
	}
	if err := copyFile(sourcePath, destPath); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "copy artifact into place", err)
	}

	return manifest.Mutate(m.manifestPath, func(doc *manifest.Document) error {
		doc.AddLibrary(lib.Name, sourcePath, opts.CollectionName)
		return nil
	})
}

// Uninstall resolves name's record, drops the manual reference, and
// physically deletes the file only when the library's reference set is
// left empty.
func (m *Manager) Uninstall(ctx context.Context, name string) error {
	var shouldDelete bool
	err := manifest.Mutate(m.manifestPath, func(doc *manifest.Document) error {
		shouldDelete = doc.RemoveLibrary(name, "")
		return nil
	})
	if err != nil {
		return err
	}
	if !shouldDelete {
		return nil
	}

	path, ok := m.resolveByName(name)
	if !ok {
		return libragenerrors.New(libragenerrors.KindNotFound, fmt.Sprintf("no installed artifact found for %s", name))
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "remove artifact file", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
