// Package manager drives the install/update pipeline: stop the host,
// resolve a release, select and download an asset, reconcile the archive
// into the plugin directory, update the registry, restart the host.
package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/plugman/internal/fsretry"
	"github.com/zjrosen/plugman/internal/github"
	"github.com/zjrosen/plugman/internal/host"
	"github.com/zjrosen/plugman/internal/log"
	"github.com/zjrosen/plugman/internal/manifest"
	"github.com/zjrosen/plugman/internal/ui"
)

var (
	// ErrPluginExists rejects adding a name that is already installed.
	ErrPluginExists = errors.New("plugin already exists")

	// ErrPluginNotInstalled indicates an operation on an unknown name.
	ErrPluginNotInstalled = errors.New("plugin not installed")
)

// Resolver fetches release metadata and asset bytes.
// Implemented by the GitHub client; faked in tests.
type Resolver interface {
	Resolve(ctx context.Context, repo, tag string) (*github.Release, error)
	Download(ctx context.Context, url, dest string) error
}

// Installer reconciles a downloaded archive into the plugin directory.
type Installer interface {
	Install(zipPath, pluginRoot, name string) error
}

// Manager coordinates one command's mutations. Execution is sequential:
// multi-name commands iterate names one at a time.
type Manager struct {
	Registry     *manifest.Registry
	ManifestPath string
	PluginDir    string
	Resolver     Resolver
	Installer    Installer
	Host         host.Controller
	Chooser      github.Chooser
	Console      *ui.Console
	// RestartHost relaunches the host after a mutating command.
	RestartHost bool
}

// withHost runs fn between a host stop and restart. A stop failure is
// fatal: nothing is safe to mutate while the host may hold plugin files
// open. A restart failure is reported but does not fail the command.
func (m *Manager) withHost(fn func() error) error {
	if err := m.Host.Stop(); err != nil {
		return err
	}
	defer func() {
		if !m.RestartHost {
			return
		}
		if err := m.Host.Start(); err != nil {
			m.Console.Errorf("failed to restart host: %v", err)
		}
	}()
	return fn()
}

// install resolves, selects, downloads, and extracts one plugin.
// With a non-empty current version, a resolved tag equal to it
// short-circuits before any download. Returns the installed (or current)
// tag and whether anything was written.
func (m *Manager) install(ctx context.Context, name, repo, target, current, pattern string) (string, bool, error) {
	rel, err := m.Resolver.Resolve(ctx, repo, target)
	if err != nil {
		return "", false, fmt.Errorf("resolving release: %w", err)
	}
	if current != "" && rel.TagName == current {
		return current, false, nil
	}

	asset, err := github.Select(rel.Assets, pattern, m.Registry.Arch, m.Chooser)
	if err != nil {
		return "", false, fmt.Errorf("selecting asset: %w", err)
	}

	dest := filepath.Join(m.PluginDir, asset.Name)
	if err := m.Resolver.Download(ctx, asset.BrowserDownloadURL, dest); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	if err := m.Installer.Install(dest, m.PluginDir, name); err != nil {
		return "", false, fmt.Errorf("installing %s: %w", name, err)
	}
	return rel.TagName, true, nil
}

// Add installs a new plugin. Adding a name that is already recorded is
// rejected; there is no implicit reinstall.
func (m *Manager) Add(ctx context.Context, name, repo, version, pattern string) error {
	if _, ok := m.Registry.Get(name); ok {
		return fmt.Errorf("%w: %s", ErrPluginExists, name)
	}

	err := m.withHost(func() error {
		tag, _, err := m.install(ctx, name, repo, version, "", pattern)
		if err != nil {
			return err
		}
		m.Registry.Set(name, manifest.Record{Repo: repo, Version: tag, Pattern: pattern})
		m.Console.Added(name, tag)
		return nil
	})
	if err != nil {
		return err
	}
	return m.save()
}

// Update updates the named plugins. version pins the target release and
// is only meaningful with a single name. Per-name failures are reported
// and the batch continues; the manifest is saved either way.
func (m *Manager) Update(ctx context.Context, names []string, version string) error {
	return m.batch(func() int {
		failed := 0
		for _, name := range names {
			if !m.updateOne(ctx, name, version) {
				failed++
			}
		}
		return failed
	}, "update")
}

// UpdateAll updates every installed plugin except pinned ones.
func (m *Manager) UpdateAll(ctx context.Context) error {
	return m.batch(func() int {
		failed := 0
		for _, name := range m.Registry.Names() {
			if m.Registry.Pinned(name) {
				log.Debug(log.CatManifest, "skipping pinned plugin", "name", name)
				continue
			}
			if !m.updateOne(ctx, name, "") {
				failed++
			}
		}
		return failed
	}, "update")
}

func (m *Manager) updateOne(ctx context.Context, name, version string) bool {
	rec, ok := m.Registry.Get(name)
	if !ok {
		m.Console.Errorf("update %s: %v", name, ErrPluginNotInstalled)
		return false
	}

	tag, updated, err := m.install(ctx, name, rec.Repo, version, rec.Version, rec.Pattern)
	if err != nil {
		m.Console.Errorf("failed to update %s: %v", name, err)
		return false
	}
	if !updated {
		m.Console.UpToDate(name, tag)
		return true
	}
	m.Registry.Set(name, manifest.Record{Repo: rec.Repo, Version: tag, Pattern: rec.Pattern})
	m.Console.Added(name, tag)
	return true
}

// Remove deletes plugin directories and their records. Per-name failures
// are reported and the batch continues.
func (m *Manager) Remove(names []string) error {
	return m.batch(func() int {
		failed := 0
		for _, name := range names {
			if _, ok := m.Registry.Get(name); !ok {
				m.Console.Errorf("remove %s: %v", name, ErrPluginNotInstalled)
				failed++
				continue
			}
			if err := fsretry.RemoveAll(filepath.Join(m.PluginDir, name)); err != nil {
				m.Console.Errorf("failed to remove %s: %v", name, err)
				failed++
				continue
			}
			m.Registry.Delete(name)
			m.Console.Removed(name)
		}
		return failed
	}, "remove")
}

// Import reinstalls every recorded plugin at its recorded version,
// rebuilding plugin contents from the manifest. With dryRun the manifest
// is rewritten without downloading anything.
func (m *Manager) Import(ctx context.Context, dryRun bool) error {
	if dryRun {
		return m.save()
	}

	return m.batch(func() int {
		failed := 0
		for _, name := range m.Registry.Names() {
			rec, _ := m.Registry.Get(name)
			// Recorded version as the pin, empty current: forced reinstall.
			tag, _, err := m.install(ctx, name, rec.Repo, rec.Version, "", rec.Pattern)
			if err != nil {
				m.Console.Errorf("failed to import %s: %v", name, err)
				failed++
				continue
			}
			m.Registry.Set(name, manifest.Record{Repo: rec.Repo, Version: tag, Pattern: rec.Pattern})
			m.Console.Added(name, tag)
		}
		return failed
	}, "import")
}

// Restart stops and starts the host application.
func (m *Manager) Restart() error {
	if err := m.Host.Stop(); err != nil {
		return err
	}
	return m.Host.Start()
}

// batch wraps a multi-name mutation: host coordination around fn, save
// the manifest afterwards regardless of per-item failures, and surface a
// non-zero exit when any item failed.
func (m *Manager) batch(fn func() int, verb string) error {
	var failed int
	if err := m.withHost(func() error {
		failed = fn()
		return nil
	}); err != nil {
		return err
	}
	if err := m.save(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d plugin(s) failed to %s", failed, verb)
	}
	return nil
}

func (m *Manager) save() error {
	if err := m.Registry.Save(m.ManifestPath); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}
