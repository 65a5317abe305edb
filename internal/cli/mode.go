// internal/cli/mode.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	aomsys "github.com/arc-language/aom-sys"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show the resolved link mode",
	Long:  `Display the link mode selected by flags, environment and config file, and what it will use.`,
	Args:  cobra.NoArgs,
	RunE:  runMode,
}

func runMode(cmd *cobra.Command, args []string) error {
	m, err := aomsys.NewManager(&aomsys.Options{Config: config})
	if err != nil {
		return err
	}
	man := m.Manifest()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Mode: %s\n", m.Mode())
	switch mode := m.Mode().(type) {
	case aomsys.SourceBuild:
		src := config.SourceDir
		if src == "" {
			src = man.SourceDir
		}
		fmt.Fprintf(out, "Source: %s\n", config.Resolve(src))
		fmt.Fprintf(out, "Build dir: %s\n", config.BuildDir)
		fmt.Fprintf(out, "Link: static\n")
	case aomsys.Dynamic:
		fmt.Fprintf(out, "Requires: %s (pkg-config)\n", man.Requirement())
		fmt.Fprintf(out, "Link: dynamic\n")
	case aomsys.Precompiled:
		fmt.Fprintf(out, "Directory: %s\n", config.Resolve(mode.Dir))
		fmt.Fprintf(out, "Link: static\n")
	}
	fmt.Fprintf(out, "Header: %s\n", man.Header)
	fmt.Fprintf(out, "Output: %s\n", config.Resolve(config.OutDir))

	return nil
}
