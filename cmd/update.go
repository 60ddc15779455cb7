package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	updateAll     bool
	updateVersion string
)

var updateCmd = &cobra.Command{
	Use:     "update [names...]",
	Aliases: []string{"u"},
	Short:   "Update plugins",
	Long: `Update the named plugins to their latest release, or pin one plugin
to a specific version with --version.

With --all every installed plugin is updated except pinned ones
(see "plugman pin"). Plugins already at the resolved release are
reported up to date and nothing is downloaded.

Examples:
  plugman update Everything
  plugman update Everything Bang
  plugman update Everything -v v0.9.0
  plugman update --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateAll && len(args) > 0 {
			return fmt.Errorf("--all cannot be combined with plugin names")
		}
		if !updateAll && len(args) == 0 {
			return fmt.Errorf("requires plugin names or --all")
		}
		if updateVersion != "" && (updateAll || len(args) != 1) {
			return fmt.Errorf("--version requires exactly one plugin name")
		}

		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		if updateAll {
			return m.UpdateAll(cmd.Context())
		}
		return m.Update(cmd.Context(), args, updateVersion)
	},
}

func init() {
	updateCmd.Flags().BoolVarP(&updateAll, "all", "a", false, "update all unpinned plugins")
	updateCmd.Flags().StringVarP(&updateVersion, "version", "v", "", "target version tag (single plugin only)")
	rootCmd.AddCommand(updateCmd)
}
