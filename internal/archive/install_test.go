package archive

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeZip builds a zip file at path from entry name -> content.
// Entries ending in "/" become directories.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestInstall_StripsWrapperDirectory(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{
		"wrapper/bin/plugin.dll":  "binary",
		"wrapper/bin/plugin.json": `{"name":"foo"}`,
	})

	inst := &Installer{}
	require.NoError(t, inst.Install(zipPath, root, "foo"))

	data, err := os.ReadFile(filepath.Join(root, "foo", "plugin.dll"))
	require.NoError(t, err)
	require.Equal(t, "binary", string(data))

	data, err = os.ReadFile(filepath.Join(root, "foo", "plugin.json"))
	require.NoError(t, err)
	require.Equal(t, `{"name":"foo"}`, string(data))

	_, err = os.Stat(filepath.Join(root, "foo", "wrapper"))
	require.True(t, os.IsNotExist(err), "wrapper segment must not survive extraction")
}

func TestInstall_FlatArchive(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{
		"plugin.dll":       "binary",
		"images/icon.png":  "png",
		"plugin.json":      "{}",
		"subdir/extra.txt": "notes",
	})

	inst := &Installer{}
	require.NoError(t, inst.Install(zipPath, root, "foo"))

	for _, rel := range []string{"plugin.dll", "images/icon.png", "plugin.json", "subdir/extra.txt"} {
		_, err := os.Stat(filepath.Join(root, "foo", filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
	}
}

func TestInstall_DeletesArchiveOnSuccess(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{"plugin.dll": "binary"})

	inst := &Installer{}
	require.NoError(t, inst.Install(zipPath, root, "foo"))

	_, err := os.Stat(zipPath)
	require.True(t, os.IsNotExist(err))
}

func TestInstall_NoLibraryFailsBeforeWriting(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{"readme.txt": "no payload here"})

	inst := &Installer{}
	err := inst.Install(zipPath, root, "foo")
	require.ErrorIs(t, err, ErrMalformedArchive)

	// Archive kept for diagnosis, no plugin directory created.
	_, err = os.Stat(zipPath)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "foo"))
	require.True(t, os.IsNotExist(err))
}

func TestInstall_FailureLeavesPreviousInstallIntact(t *testing.T) {
	root := t.TempDir()
	previous := filepath.Join(root, "foo")
	require.NoError(t, os.MkdirAll(previous, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(previous, "plugin.dll"), []byte("old"), 0o644))

	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{"readme.txt": "no payload"})

	inst := &Installer{}
	require.Error(t, inst.Install(zipPath, root, "foo"))

	data, err := os.ReadFile(filepath.Join(previous, "plugin.dll"))
	require.NoError(t, err)
	require.Equal(t, "old", string(data))
}

func TestInstall_ReplacesExistingInstallation(t *testing.T) {
	root := t.TempDir()
	previous := filepath.Join(root, "foo")
	require.NoError(t, os.MkdirAll(previous, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(previous, "stale.dll"), []byte("old"), 0o644))

	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{"plugin.dll": "new"})

	inst := &Installer{}
	require.NoError(t, inst.Install(zipPath, root, "foo"))

	_, err := os.Stat(filepath.Join(previous, "stale.dll"))
	require.True(t, os.IsNotExist(err), "stale files must not survive a reinstall")
	data, err := os.ReadFile(filepath.Join(previous, "plugin.dll"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestInstall_ForeignEntriesSkippedWithWarning(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{
		"wrapper/plugin.dll": "binary",
		"stray/notes.txt":    "outside the logical root",
	})

	var warnings []string
	inst := &Installer{Warn: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}}
	require.NoError(t, inst.Install(zipPath, root, "foo"))

	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "stray/notes.txt")
	_, err := os.Stat(filepath.Join(root, "foo", "notes.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestInstall_NoStagingLeftBehind(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "foo.zip")
	writeZip(t, zipPath, map[string]string{"plugin.dll": "binary"})

	inst := &Installer{}
	require.NoError(t, inst.Install(zipPath, root, "foo"))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".staging-")
	}
}
