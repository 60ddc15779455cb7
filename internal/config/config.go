// Package config provides configuration types and defaults for plugman.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Arch is the CPU architecture token used for asset matching.
// It is derived once from the running process and is immutable afterwards;
// a config value may override the detection for cross-managed installs.
type Arch string

const (
	ArchX64   Arch = "x64"
	ArchARM64 Arch = "arm64"
)

func (a Arch) String() string { return string(a) }

// Valid reports whether the architecture is one of the supported tokens.
func (a Arch) Valid() bool {
	return a == ArchX64 || a == ArchARM64
}

// DetectArch maps the running process architecture to an asset token.
func DetectArch() Arch {
	switch runtime.GOARCH {
	case "arm64":
		return ArchARM64
	default:
		return ArchX64
	}
}

// GitHubConfig holds release API client options.
type GitHubConfig struct {
	// Token is an optional bearer token for the release API.
	// Also bound to the GITHUB_TOKEN environment variable.
	Token string `mapstructure:"token"`
	// APIURL is the release API base URL. Override for testing or proxies.
	APIURL string `mapstructure:"api_url"`
}

// HostConfig holds host application process options.
type HostConfig struct {
	// ImageFilter is the process image name prefix used to stop the host.
	ImageFilter string `mapstructure:"image_filter"`
	// Executable is the host executable path. When empty, well-known
	// install locations are probed instead.
	Executable string `mapstructure:"executable"`
	// Restart controls whether the host is relaunched after a mutating
	// command. Overridden by the --no-restart flag.
	Restart bool `mapstructure:"restart"`
	// Elevate requests elevated privileges when stopping the host.
	Elevate bool `mapstructure:"elevate"`
}

// Config holds all configuration options for plugman.
type Config struct {
	// PluginDir is the host's plugin root directory. Plugin directories
	// and the manifest both live under it.
	PluginDir string       `mapstructure:"plugin_dir"`
	Arch      string       `mapstructure:"arch"`
	GitHub    GitHubConfig `mapstructure:"github"`
	Host      HostConfig   `mapstructure:"host"`
}

// Defaults returns the default configuration. The plugin directory and
// host probe locations follow the host application's install layout.
func Defaults() Config {
	return Config{
		PluginDir: filepath.Join(os.Getenv("LOCALAPPDATA"),
			"Microsoft", "PowerToys", "PowerToys Run", "Plugins"),
		Arch: DetectArch().String(),
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
		Host: HostConfig{
			ImageFilter: "PowerToys",
			Restart:     true,
		},
	}
}

// HostProbePaths returns the well-known install locations probed for the
// host executable when none is configured.
func HostProbePaths() []string {
	var paths []string
	for _, env := range []string{"ProgramFiles", "LOCALAPPDATA"} {
		if base := os.Getenv(env); base != "" {
			paths = append(paths, filepath.Join(base, "PowerToys", "PowerToys.exe"))
		}
	}
	return paths
}

// ManifestPath returns the manifest location for a plugin directory.
func ManifestPath(pluginDir string) string {
	return filepath.Join(pluginDir, "plugins.yaml")
}

// Validate checks the configuration for values no command can work with.
func (c Config) Validate() error {
	if c.PluginDir == "" {
		return fmt.Errorf("plugin_dir is required (set it in the config file or via --plugin-dir)")
	}
	if !Arch(c.Arch).Valid() {
		return fmt.Errorf("arch %q is not supported (valid: %s, %s)", c.Arch, ArchX64, ArchARM64)
	}
	if c.GitHub.APIURL == "" {
		return fmt.Errorf("github.api_url is required")
	}
	return nil
}
