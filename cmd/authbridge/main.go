// Command authbridge serves the GraphQL auth API behind the auth bridge and
// ships a few operator tools.
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
	rootCmd := &cobra.Command{
		Use:           "authbridge",
		Short:         "Session auth bridge and GraphQL auth API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMintCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newHashPasswordCmd())
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newLoadtestCmd())

	return rootCmd
}
