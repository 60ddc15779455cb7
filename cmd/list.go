package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/plugman/internal/config"
	"github.com/zjrosen/plugman/internal/manifest"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all installed plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		reg, err := manifest.Load(config.ManifestPath(cfg.PluginDir))
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Name", "Repository", "Version", "Pinned"})
		for _, name := range reg.Names() {
			rec, _ := reg.Get(name)
			pinned := ""
			if reg.Pinned(name) {
				pinned = "yes"
			}
			t.AppendRow(table.Row{name, rec.Repo, rec.Version, pinned})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
