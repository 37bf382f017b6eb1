// Package cli provides the command-line interface for LeapMesh.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmesh/internal/cli/commands"
	"github.com/leapstack-labs/leapmesh/internal/engine"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapmesh",
		Short: "LeapMesh - Cross-Project Data Transformation",
		Long: `LeapMesh coordinates SQL transformation graphs across project boundaries.

A project's public models form its publication contract. Downstream projects
declare their upstream dependencies and resolve references through supplied
publication artifacts, never by live introspection.`,
		Version:       engine.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("project-dir", "", "Path to the project directory (default: nearest leapmesh.yaml)")
	pf.String("models-dir", "", "Path to the models directory")
	pf.StringSlice("publications", nil, "Publication artifact files to supply for this run")
	pf.String("state", "", "Path to the state database")
	pf.String("database", "", "Path to the local execution database (\":memory:\" allowed)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewListCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
