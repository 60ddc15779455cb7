package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/plugman/internal/config"
)

func TestLoad_MissingFile(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "plugins.yaml"))
	require.NoError(t, err)
	require.Equal(t, 0, reg.Len())
	require.True(t, config.Arch(reg.Arch).Valid())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	require.NoError(t, os.WriteFile(path, []byte("arch: [not\nvalid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing manifest")
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")

	reg := New(config.ArchX64)
	reg.Set("zebra", Record{Repo: "owner/zebra", Version: "v2.0.0"})
	reg.Set("apple", Record{Repo: "owner/apple", Version: "v1.1.0", Pattern: `.*linux.*\.tar\.gz`})
	reg.Pin("zebra")
	require.NoError(t, reg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "x64", loaded.Arch)
	require.Equal(t, []string{"apple", "zebra"}, loaded.Names())

	apple, ok := loaded.Get("apple")
	require.True(t, ok)
	require.Equal(t, Record{Repo: "owner/apple", Version: "v1.1.0", Pattern: `.*linux.*\.tar\.gz`}, apple)

	zebra, ok := loaded.Get("zebra")
	require.True(t, ok)
	require.Equal(t, Record{Repo: "owner/zebra", Version: "v2.0.0"}, zebra)

	require.True(t, loaded.Pinned("zebra"))
	require.False(t, loaded.Pinned("apple"))
}

func TestSave_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.yaml")
	pathB := filepath.Join(dir, "b.yaml")

	regA := New(config.ArchX64)
	regA.Set("bravo", Record{Repo: "o/b", Version: "v1"})
	regA.Set("alpha", Record{Repo: "o/a", Version: "v1"})

	// Same records inserted in the opposite order.
	regB := New(config.ArchX64)
	regB.Set("alpha", Record{Repo: "o/a", Version: "v1"})
	regB.Set("bravo", Record{Repo: "o/b", Version: "v1"})

	require.NoError(t, regA.Save(pathA))
	require.NoError(t, regB.Save(pathB))

	bytesA, err := os.ReadFile(pathA)
	require.NoError(t, err)
	bytesB, err := os.ReadFile(pathB)
	require.NoError(t, err)
	require.Equal(t, string(bytesA), string(bytesB))
}

func TestDelete_RemovesPin(t *testing.T) {
	reg := New(config.ArchX64)
	reg.Set("foo", Record{Repo: "o/foo", Version: "v1"})
	reg.Pin("foo")

	reg.Delete("foo")

	_, ok := reg.Get("foo")
	require.False(t, ok)
	require.False(t, reg.Pinned("foo"))
}

func TestResetPins(t *testing.T) {
	reg := New(config.ArchX64)
	reg.Pin("a")
	reg.Pin("b")
	require.Len(t, reg.Pins(), 2)

	reg.ResetPins()
	require.Empty(t, reg.Pins())
}

func TestRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nameGen := rapid.StringMatching(`[a-zA-Z][a-zA-Z0-9._-]{0,20}`)
		reg := New(config.ArchARM64)

		names := rapid.SliceOfDistinct(nameGen, rapid.ID[string]).Draw(rt, "names")
		for _, name := range names {
			reg.Set(name, Record{
				Repo:    "owner/" + name,
				Version: rapid.StringMatching(`v[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`).Draw(rt, "version"),
				Pattern: rapid.SampledFrom([]string{"", `.*x64.*\.zip`}).Draw(rt, "pattern"),
			})
			if rapid.Bool().Draw(rt, "pin") {
				reg.Pin(name)
			}
		}

		path := filepath.Join(t.TempDir(), "plugins.yaml")
		require.NoError(t, reg.Save(path))
		loaded, err := Load(path)
		require.NoError(t, err)

		require.Equal(t, reg.Arch, loaded.Arch)
		require.Equal(t, reg.Names(), loaded.Names())
		require.Equal(t, reg.Pins(), loaded.Pins())
		for _, name := range reg.Names() {
			want, _ := reg.Get(name)
			got, _ := loaded.Get(name)
			require.Equal(t, want, got)
		}
	})
}
