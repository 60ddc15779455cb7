package cmd

import (
	"github.com/spf13/cobra"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:     "import",
	Aliases: []string{"i"},
	Short:   "Reinstall plugins from the manifest",
	Long: `Reinstall every recorded plugin at its recorded version. Use this to
rebuild plugin contents on a new machine or after the plugin directory
was wiped, without changing versions.

With --dry-run the manifest is rewritten and normalized without
downloading anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		return m.Import(cmd.Context(), importDryRun)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "rewrite the manifest without downloading plugins")
	rootCmd.AddCommand(importCmd)
}
