package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	var noPublish bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Assemble and validate the project manifest",
		Long: `Parse local models, import supplied publication artifacts, and resolve
every reference into the dependency graph. On success the project's own
publication artifact is written to the target directory.`,
		Example: `  # Parse the current project
  leapmesh parse

  # Parse with extra publication artifacts
  leapmesh parse --publications ../marketing/target/marketing_publication.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runParse(cmd, noPublish)
		},
	}

	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "Skip writing and emitting the publication artifact")

	return cmd
}

func runParse(cmd *cobra.Command, noPublish bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := cc.Engine.Parse(cmd.Context())
	if err != nil {
		return err
	}

	m := result.Manifest
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project %s: %d local model(s), %d external node(s) from %d publication(s)\n",
		m.ProjectName, len(m.LocalNodes()), len(m.ExternalNodes()), len(m.Publications))
	fmt.Fprintln(out, result.Discovery.Summary())

	if noPublish {
		return nil
	}

	pub, err := cc.Engine.Publish(m)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Published %d public model(s) to %s\n", len(pub.PublicModels), cc.Cfg.TargetDir)
	return nil
}
