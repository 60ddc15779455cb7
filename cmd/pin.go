package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/plugman/internal/config"
	"github.com/zjrosen/plugman/internal/manifest"
)

var pinCmd = &cobra.Command{
	Use:     "pin",
	Aliases: []string{"p"},
	Short:   "Pin plugins so they are skipped by update --all",
}

// withRegistry loads the registry, applies fn, and saves.
// Pin operations only touch the manifest, so no host coordination.
func withRegistry(fn func(reg *manifest.Registry) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := config.ManifestPath(cfg.PluginDir)
	reg, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return reg.Save(path)
}

var pinAddCmd = &cobra.Command{
	Use:   "add <names...>",
	Short: "Pin plugins",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(reg *manifest.Registry) error {
			for _, name := range args {
				reg.Pin(name)
			}
			return nil
		})
	},
}

var pinRemoveCmd = &cobra.Command{
	Use:   "remove <names...>",
	Short: "Unpin plugins",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(reg *manifest.Registry) error {
			for _, name := range args {
				reg.Unpin(name)
			}
			return nil
		})
	},
}

var pinListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pinned plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		reg, err := manifest.Load(config.ManifestPath(cfg.PluginDir))
		if err != nil {
			return err
		}
		for _, name := range reg.Pins() {
			fmt.Println(name)
		}
		return nil
	},
}

var pinResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Unpin all plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(reg *manifest.Registry) error {
			reg.ResetPins()
			return nil
		})
	},
}

func init() {
	pinCmd.AddCommand(pinAddCmd, pinRemoveCmd, pinListCmd, pinResetCmd)
	rootCmd.AddCommand(pinCmd)
}
