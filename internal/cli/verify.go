// internal/cli/verify.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	aomsys "github.com/arc-language/aom-sys"
	"github.com/arc-language/aom-sys/pkg/loader"
)

var verifyLibDirs []string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the dynamic libaom loads at run time",
	Long: `Probe libaom with pkg-config and open it the way the final binary will,
then report the version it returns. Static link modes have nothing to
load and are only reported.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringSliceVar(&verifyLibDirs, "lib-dir", nil, "load from these directories instead of probing")
}

func runVerify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dirs := verifyLibDirs

	if len(dirs) == 0 {
		m, err := aomsys.NewManager(&aomsys.Options{Config: config})
		if err != nil {
			return err
		}
		if _, ok := m.Mode().(aomsys.Dynamic); !ok {
			fmt.Fprintf(out, "Mode %s links libaom statically; nothing to load at run time\n", m.Mode())
			return nil
		}

		acq, err := m.Acquire(cmd.Context())
		if err != nil {
			return err
		}
		if acq.Directives.SearchPath != "" {
			dirs = []string{acq.Directives.SearchPath}
		}
		fmt.Fprintf(out, "pkg-config reports libaom %s\n", acq.Version)
	}

	info, err := loader.Version(dirs)
	if err != nil {
		return fmt.Errorf("loading libaom: %w", err)
	}

	fmt.Fprintf(out, "✓ Loaded %s\n", info.Path)
	fmt.Fprintf(out, "  Version: %s\n", info.Version)
	return nil
}
