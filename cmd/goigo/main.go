// Command goigo is a small developer CLI wrapping pkg/goengine for local
// exercise and benchmarking. It is explicitly not a text-protocol
// front-end: every subcommand calls the engine's Go API directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "goigo",
		Short: "Developer CLI for the goigo search engine",
	}
	root.AddCommand(newGenmoveCmd())
	root.AddCommand(newBenchCmd())
	return root
}
