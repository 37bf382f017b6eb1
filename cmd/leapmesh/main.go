// Package main is the entry point for the leapmesh CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapmesh/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
