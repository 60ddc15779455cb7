// Package cmd implements the plugman command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/plugman/internal/archive"
	"github.com/zjrosen/plugman/internal/config"
	"github.com/zjrosen/plugman/internal/github"
	"github.com/zjrosen/plugman/internal/host"
	"github.com/zjrosen/plugman/internal/log"
	"github.com/zjrosen/plugman/internal/manager"
	"github.com/zjrosen/plugman/internal/manifest"
	"github.com/zjrosen/plugman/internal/ui"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "plugman",
	Short:   "Plugin manager for the PowerToys Run launcher",
	Long: `plugman installs, updates, and removes PowerToys Run plugins from
GitHub releases, recording installed versions in a manifest inside the
plugin directory.

The launcher is stopped before plugin files are rewritten and restarted
afterwards; pass --no-restart to leave it stopped.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/plugman/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write a debug log to the system temp directory")
	rootCmd.PersistentFlags().String("plugin-dir", "",
		"plugin root directory (default: the launcher's plugin directory)")
	rootCmd.PersistentFlags().Bool("no-restart", false,
		"do not relaunch the launcher after mutating commands")

	// Bind flags to viper
	_ = viper.BindPFlag("plugin_dir", rootCmd.PersistentFlags().Lookup("plugin-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("plugin_dir", defaults.PluginDir)
	viper.SetDefault("arch", defaults.Arch)
	viper.SetDefault("github.api_url", defaults.GitHub.APIURL)
	viper.SetDefault("host.image_filter", defaults.Host.ImageFilter)
	viper.SetDefault("host.restart", defaults.Host.Restart)
	_ = viper.BindEnv("github.token", "GITHUB_TOKEN")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "plugman"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file is fine - defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if debug || os.Getenv("PLUGMAN_DEBUG") != "" {
		if _, err := log.Init(filepath.Join(os.TempDir(), "plugman.log")); err != nil {
			fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
		}
	}
}

// newManager assembles the pipeline from configuration. Every command
// that touches the registry or the plugin directory goes through here so
// paths stay explicit and tests can build a Manager by hand.
func newManager(cmd *cobra.Command) (*manager.Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := manifest.Load(config.ManifestPath(cfg.PluginDir))
	if err != nil {
		return nil, err
	}
	// The configured (or detected) architecture wins over a stale
	// manifest value; it is re-persisted on the next save.
	reg.Arch = cfg.Arch

	console := ui.NewConsole()
	noRestart, _ := cmd.Flags().GetBool("no-restart")

	return &manager.Manager{
		Registry:     reg,
		ManifestPath: config.ManifestPath(cfg.PluginDir),
		PluginDir:    cfg.PluginDir,
		Resolver:     github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token),
		Installer:    &archive.Installer{Warn: console.Warnf},
		Host: host.NewExecController(cfg.Host.ImageFilter, cfg.Host.Executable,
			config.HostProbePaths(), cfg.Host.Elevate, ui.Prompt),
		Chooser:     ui.NewStdinChooser(),
		Console:     console,
		RestartHost: cfg.Host.Restart && !noRestart,
	}, nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.NewConsole().Errorf("%v", err)
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
