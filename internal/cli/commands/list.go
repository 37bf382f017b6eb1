package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all nodes in the manifest",
		Aliases: []string{"ls"},
		RunE:    runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := cc.Engine.Parse(cmd.Context())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Unique ID", "Access", "Materialized", "Source"})

	m := result.Manifest
	for _, n := range m.LocalNodes() {
		t.AppendRow(table.Row{n.UniqueID, string(n.Access), n.Materialized, "local"})
	}
	for _, n := range m.ExternalNodes() {
		t.AppendRow(table.Row{n.UniqueID, string(n.Access), "-", n.SourceProject + " (external)"})
	}

	t.Render()
	return nil
}
