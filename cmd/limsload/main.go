// Command limsload bulk-loads laboratory setup-data workbooks into a
// limscore repository.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "limsload:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "limsload",
		Short:         "Load laboratory setup data from multi-sheet workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newImportCmd())
	return cmd
}
