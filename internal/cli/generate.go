// internal/cli/generate.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	aomsys "github.com/arc-language/aom-sys"
)

var (
	generateJobs       int
	generateDirectives bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Acquire libaom and generate the Go bindings",
	Long: `Acquire libaom in the selected link mode, then write the declarations
file and the cgo flags file into the output directory.

Examples:
  aom-sys generate
  AOM_LINK_MODE=shared-library aom-sys generate
  aom-sys generate --precompiled /opt/aom
  aom-sys generate --directives`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generateJobs, "jobs", "j", 0, "parallel cmake build jobs")
	generateCmd.Flags().BoolVar(&generateDirectives, "directives", false, "print only the linker directives")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config
	if generateJobs > 0 {
		cfg.Jobs = generateJobs
	}

	m, err := aomsys.NewManager(&aomsys.Options{Config: cfg})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !generateDirectives {
		fmt.Fprintf(out, "Link mode: %s\n", m.Mode())
	}

	res, err := m.Build(cmd.Context())
	if err != nil {
		return err
	}

	for _, line := range res.Directives.Lines() {
		fmt.Fprintln(out, line)
	}
	if generateDirectives {
		return nil
	}

	if res.Version != "" {
		fmt.Fprintf(out, "Library version: %s\n", res.Version)
	}
	if res.Revision != "" {
		fmt.Fprintf(out, "Source revision: %s\n", res.Revision)
	}
	fmt.Fprintf(out, "✓ Wrote %s\n", res.Declarations)
	fmt.Fprintf(out, "✓ Wrote %s\n", res.Flags)
	return nil
}
