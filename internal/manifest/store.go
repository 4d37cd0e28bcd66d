package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// Load reads the manifest document at path, returning a fresh document if
// the file does not exist yet. The read is advisory-locked against
// concurrent writers via a sibling .lock file.
func Load(path string) (*Document, error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "lock manifest", err)
	}
	defer lock.Unlock()

	return loadLocked(path)
}

// Save writes doc to path as a whole-file rewrite: marshal to a temp file
// in the same directory, then rename over the destination, so readers
// never observe a torn file. Advisory-locked against concurrent Manager
// instances via a sibling .lock file.
func Save(path string, doc *Document) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "lock manifest", err)
	}
	defer lock.Unlock()

	return saveLocked(path, doc)
}

// Mutate loads the manifest at path, applies fn, and saves the result,
// all under a single hold of the sibling .lock file. Unlike a separate
// Load followed by Save, this is the unit callers need when several
// goroutines or processes may be registering different libraries against
// the same manifest concurrently: the lock is held across the full
// read-modify-write, so no writer can observe a stale snapshot a
// concurrent writer is about to overwrite.
func Mutate(path string, fn func(*Document) error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "lock manifest", err)
	}
	defer lock.Unlock()

	doc, err := loadLocked(path)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return saveLocked(path, doc)
}

func loadLocked(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newDocument(), nil
	}
	if err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindIOError, "read manifest", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "parse manifest", err)
	}
	if doc.Collections == nil {
		doc.Collections = map[string]InstalledCollectionRecord{}
	}
	if doc.Libraries == nil {
		doc.Libraries = map[string]InstalledLibraryRecord{}
	}
	return &doc, nil
}

func saveLocked(path string, doc *Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return libragenerrors.Wrap(libragenerrors.KindIOError, "create manifest directory", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "marshal manifest", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return libragenerrors.Wrap(libragenerrors.KindIOError, "write manifest temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return libragenerrors.Wrap(libragenerrors.KindIOError, "rename manifest into place", err)
	}
	return nil
}
