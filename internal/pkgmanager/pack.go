package pkgmanager

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/libragen/libragen/internal/collection"
	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// packedCollectionDocName is the entry a packed collection archive always
// carries its document under, regardless of the archive's own filename.
const packedCollectionDocName = "collection.json"

// isPackedCollection reports whether source names a *.libragen-collection
// archive rather than a bare collection.json document or URL.
func isPackedCollection(source string) bool {
	return strings.HasSuffix(source, ".libragen-collection")
}

// extractPackedCollection unpacks a gzip-compressed tar archive containing
// collection.json and the library files it references (by ./<filename>)
// into a fresh scratch directory. The caller must invoke cleanup once done.
func extractPackedCollection(path string) (dir string, cleanup func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", func() {}, libragenerrors.Wrap(libragenerrors.KindIOError, "open packed collection", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", func() {}, libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "open packed collection gzip stream", err)
	}
	defer gz.Close()

	scratch, err := os.MkdirTemp("", "libragen-collection-*")
	if err != nil {
		return "", func() {}, libragenerrors.Wrap(libragenerrors.KindIOError, "create scratch directory", err)
	}
	cleanup = func() { _ = os.RemoveAll(scratch) }

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			cleanup()
			return "", func() {}, libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "read packed collection entry", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Clean(hdr.Name)
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			cleanup()
			return "", func() {}, libragenerrors.New(libragenerrors.KindInvalidArtifact, "packed collection entry escapes scratch directory: "+hdr.Name)
		}

		dest := filepath.Join(scratch, name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			cleanup()
			return "", func() {}, libragenerrors.Wrap(libragenerrors.KindIOError, "create scratch subdirectory", err)
		}
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			cleanup()
			return "", func() {}, libragenerrors.Wrap(libragenerrors.KindIOError, "create scratch file", err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			cleanup()
			return "", func() {}, libragenerrors.Wrap(libragenerrors.KindIOError, "write scratch file", err)
		}
		out.Close()
	}

	return scratch, cleanup, nil
}

// packedFetch resolves a collection.json item's source relative to the
// scratch directory when it is a bare local reference (e.g. "./foo.libragen"
// as rewritten into collection.json by the packer), and falls through to the
// default Fetch for http(s) URLs and absolute paths.
func packedFetch(baseDir string) func(ctx context.Context, uri string) ([]byte, error) {
	return func(ctx context.Context, uri string) ([]byte, error) {
		if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") || filepath.IsAbs(uri) {
			return collection.Fetch(ctx, uri)
		}
		return collection.Fetch(ctx, filepath.Join(baseDir, uri))
	}
}
