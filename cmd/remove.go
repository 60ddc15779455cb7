package cmd

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <names...>",
	Aliases: []string{"r"},
	Short:   "Remove plugins",
	Long: `Remove the named plugins: delete their directories from the plugin
root and drop their manifest records.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		return m.Remove(args)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
