package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// migration is one forward-only schema step. Version is the schema_version
// value the artifact carries after Apply succeeds.
type migration struct {
	Version int
	Apply   func(ctx context.Context, s *Store) error
}

// migrations is the append-only list of steps between schema versions.
// There is exactly one entry fewer than CurrentSchemaVersion since a
// freshly created store starts at CurrentSchemaVersion directly.
var migrations = []migration{}

// RunMigrations opens path (already connected as s.db) and brings its
// schema up to CurrentSchemaVersion:
//   - schema_version > CURRENT: SchemaVersionError, this binary is too old.
//   - schema_version == CURRENT: no-op.
//   - schema_version < CURRENT and the store is writable: the file is
//     copied to a .backup sibling, every pending migration runs in its own
//     transaction, schema_version is advanced after each succeeds, and the
//     backup is deleted on overall success or the original is restored
//     from backup on any failure.
//   - schema_version < CURRENT and the caller only wants read access is not
//     distinguished here; callers that need read-only semantics should
//     check before calling Open and surface MigrationRequiredError
//     themselves if they intend to avoid opening the file at all.
func RunMigrations(ctx context.Context, s *Store, path string) error {
	raw, ok, err := s.GetMeta(ctx, "schema_version")
	if err != nil {
		return err
	}
	version := 0
	if ok {
		version, err = strconv.Atoi(raw)
		if err != nil {
			return libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "parse schema_version", err)
		}
	}

	if version > CurrentSchemaVersion {
		return libragenerrors.New(libragenerrors.KindSchemaVersionError,
			fmt.Sprintf("artifact schema_version %d is newer than this binary supports (%d)", version, CurrentSchemaVersion))
	}
	if version == CurrentSchemaVersion {
		return nil
	}

	pending := pendingMigrations(version)
	if len(pending) == 0 {
		// schema_version is stale metadata on an otherwise-current schema;
		// reconcile it without a backup/restore envelope.
		return s.SetMeta(ctx, "schema_version", strconv.Itoa(CurrentSchemaVersion))
	}

	backupPath := path + ".backup"
	if path != ":memory:" {
		if err := copyFile(path, backupPath); err != nil {
			return libragenerrors.Wrap(libragenerrors.KindIOError, "back up artifact before migration", err)
		}
	}

	if err := applyPending(ctx, s, pending); err != nil {
		if path != ":memory:" {
			_ = restoreFile(backupPath, path)
		}
		return libragenerrors.Wrap(libragenerrors.KindMigrationRequired, "migration failed, restored from backup", err)
	}

	if path != ":memory:" {
		_ = os.Remove(backupPath)
	}
	return nil
}

func pendingMigrations(fromVersion int) []migration {
	var out []migration
	for _, m := range migrations {
		if m.Version > fromVersion {
			out = append(out, m)
		}
	}
	return out
}

func applyPending(ctx context.Context, s *Store, pending []migration) error {
	for _, m := range pending {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := func() error {
			defer func() { _ = tx.Rollback() }()
			if err := m.Apply(ctx, s); err != nil {
				return err
			}
			return tx.Commit()
		}(); err != nil {
			return err
		}
		if err := s.SetMeta(ctx, "schema_version", strconv.Itoa(m.Version)); err != nil {
			return err
		}
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

func restoreFile(backup, dst string) error {
	return copyFile(backup, dst)
}
