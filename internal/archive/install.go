// Package archive reconciles a downloaded plugin archive into the plugin
// root directory, so the final layout is pluginRoot/<name>/... regardless
// of how the archive nests its content.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zjrosen/plugman/internal/fsretry"
	"github.com/zjrosen/plugman/internal/log"
)

// libraryExt marks the plugin's binary payload; its containing directory
// inside the archive is treated as the logical root.
const libraryExt = ".dll"

// ErrMalformedArchive indicates the archive holds no recognizable plugin
// payload. Raised before any file is written.
var ErrMalformedArchive = errors.New("no plugin library found in archive")

// Installer extracts plugin archives. Warn, when set, receives a notice
// for each archive entry that falls outside the logical root.
type Installer struct {
	Warn func(format string, args ...any)
}

func (i *Installer) warnf(format string, args ...any) {
	if i.Warn != nil {
		i.Warn(format, args...)
	}
}

// Install extracts zipPath into pluginRoot/<name>.
//
// Entries are written to a staging directory first and renamed into place
// only on full success, so a failed install leaves any previous version
// intact. On success the archive file is deleted; on failure it is left
// in place for diagnosis.
func (i *Installer) Install(zipPath, pluginRoot, name string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	root, err := logicalRoot(&zr.Reader)
	if err != nil {
		return err
	}
	log.Debug(log.CatArchive, "logical root located", "archive", zipPath, "root", root)

	staging, err := os.MkdirTemp(pluginRoot, ".staging-"+name+"-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	if err := i.extract(&zr.Reader, root, staging); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	final := filepath.Join(pluginRoot, name)
	if err := fsretry.RemoveAll(final); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("removing previous installation: %w", err)
	}
	if err := fsretry.Rename(staging, final); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("moving installation into place: %w", err)
	}

	if err := os.Remove(zipPath); err != nil {
		return fmt.Errorf("removing archive: %w", err)
	}
	log.Info(log.CatArchive, "plugin installed", "name", name, "archive", zipPath)
	return nil
}

// logicalRoot finds the directory containing the first library binary.
// Validates before any mutation: no library means no install.
func logicalRoot(zr *zip.Reader) (string, error) {
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, libraryExt) {
			root := path.Dir(f.Name)
			if root == "." {
				root = ""
			}
			return root, nil
		}
	}
	return "", ErrMalformedArchive
}

// extract writes every entry under the logical root into dest, stripping
// the root prefix. Entries outside the root are foreign content: skipped
// with a warning, not an error.
func (i *Installer) extract(zr *zip.Reader, root, dest string) error {
	for _, f := range zr.File {
		rel, ok := stripRoot(f.Name, root)
		if !ok {
			log.Warn(log.CatArchive, "unexpected entry outside logical root", "entry", f.Name)
			i.warnf("unexpected file in archive at %s", f.Name)
			continue
		}
		if rel == "" {
			continue
		}

		outPath := filepath.Join(dest, filepath.FromSlash(rel))
		// Guard against entries escaping the staging directory.
		if !strings.HasPrefix(outPath, dest+string(os.PathSeparator)) {
			log.Warn(log.CatArchive, "entry escapes target directory", "entry", f.Name)
			i.warnf("unexpected file in archive at %s", f.Name)
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", rel, err)
			}
			continue
		}

		if err := writeEntry(f, outPath); err != nil {
			return fmt.Errorf("extracting %s: %w", rel, err)
		}
	}
	return nil
}

// stripRoot strips the logical root prefix from a forward-slash entry
// name. Returns false when the entry does not fall under the root.
func stripRoot(entry, root string) (string, bool) {
	entry = path.Clean(entry)
	if root == "" {
		if entry == "." || strings.HasPrefix(entry, "..") {
			return "", entry == "."
		}
		return entry, true
	}
	if entry == root {
		return "", true
	}
	rel, found := strings.CutPrefix(entry, root+"/")
	if !found {
		return "", false
	}
	return rel, true
}

func writeEntry(f *zip.File, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(outPath) //nolint:gosec // G304: outPath is confined to the staging directory
	if err != nil {
		return err
	}

	_, err = fsretry.Copy(out, rc)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
