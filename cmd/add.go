package cmd

import (
	"github.com/spf13/cobra"
)

var (
	addVersion string
	addPattern string
)

var addCmd = &cobra.Command{
	Use:     "add <name> <repo>",
	Aliases: []string{"a"},
	Short:   "Add a plugin",
	Long: `Add a plugin from a GitHub repository.

The name can be anything; it becomes the plugin's directory name. The
repository is the owner/name identifier of the plugin's GitHub repo.

Examples:
  plugman add Everything lin-ycv/EverythingPowerToys
  plugman add GitHubRepo hlaueriksson/GEmojiSharp -v v3.0.0
  plugman add Bang jeevcat/BangPowerToys -p '.*x64.*\.zip'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		return m.Add(cmd.Context(), args[0], args[1], addVersion, addPattern)
	},
}

func init() {
	addCmd.Flags().StringVarP(&addVersion, "version", "v", "", "target version tag (default: latest release)")
	addCmd.Flags().StringVarP(&addPattern, "pattern", "p", "", "asset-match regular expression (default: architecture match)")
	rootCmd.AddCommand(addCmd)
}
