package fsretry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts <= 3 {
			return errors.New("file in use")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 4, attempts)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	underlying := errors.New("still in use")
	attempts := 0
	err := Do(func() error {
		attempts++
		return underlying
	})

	require.Error(t, err)
	require.Equal(t, maxAttempts, attempts)
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, err, underlying)
}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestCopy(t *testing.T) {
	var sb strings.Builder
	n, err := Copy(&sb, strings.NewReader("payload"))

	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, "payload", sb.String())
}

func TestRemoveAll(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "plugin")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "nested", "a.dll"), []byte("x"), 0o644))

	require.NoError(t, RemoveAll(target))
	_, err := os.Stat(target)
	require.True(t, os.IsNotExist(err))
}

func TestRemoveAll_MissingPathIsSuccess(t *testing.T) {
	require.NoError(t, RemoveAll(filepath.Join(t.TempDir(), "missing")))
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "staging")
	dst := filepath.Join(dir, "final")
	require.NoError(t, os.Mkdir(src, 0o755))

	require.NoError(t, Rename(src, dst))
	_, err := os.Stat(dst)
	require.NoError(t, err)
}
