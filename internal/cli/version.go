// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "aom-sys version %s\n", Version)
		fmt.Fprintln(out, "libaom bindings generator")
		fmt.Fprintln(out, "https://github.com/arc-language/aom-sys")
	},
}
