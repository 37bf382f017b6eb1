package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmesh/internal/state"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Parse and execute all models in dependency order",
		Long: `Execute every model against the local database in topological order,
materializing each as a view or table. The publication artifact is written
and emitted only after all models succeed.`,
		Example: `  # Run the current project
  leapmesh run

  # Run against an in-memory database
  leapmesh run --database ":memory:"`,
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	run, runErr := cc.Engine.Run(cmd.Context())
	if run == nil {
		return runErr
	}

	modelRuns, err := cc.Engine.StateStore().ListModelRuns(run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	succeeded := 0
	for _, mr := range modelRuns {
		marker := "OK  "
		switch mr.Status {
		case state.ModelRunStatusSuccess:
			succeeded++
		case state.ModelRunStatusFailed:
			marker = "FAIL"
		case state.ModelRunStatusSkipped:
			marker = "SKIP"
		}
		fmt.Fprintf(out, "%s %s (%dms)\n", marker, mr.UniqueID, mr.DurationMS)
	}
	fmt.Fprintf(out, "Run %s: %s (%d/%d models succeeded)\n", run.ID, run.Status, succeeded, len(modelRuns))

	return runErr
}
