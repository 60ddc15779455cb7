package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Show plugins with newer releases available",
	Long: `Resolve the latest release for every installed plugin and report
which are behind. Read-only: nothing is downloaded and the launcher is
not stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Name", "Installed", "Latest", "Status"})
		for _, r := range m.Outdated(cmd.Context()) {
			status := "up to date"
			switch {
			case r.Err != nil:
				status = "error: " + r.Err.Error()
			case r.Behind:
				status = "update available"
			}
			t.AppendRow(table.Row{r.Name, r.Installed, r.Latest, status})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outdatedCmd)
}
