// internal/cli/doctor.go
package cli

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/arc-language/aom-sys/pkg/platform"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the build toolchain",
	Long:  `Report which external tools each link mode needs and whether they are on PATH.`,
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

// toolUses lists the link modes that need each tool
var toolUses = []struct {
	tool string
	used string
}{
	{platform.ToolCMake, "source"},
	{platform.ToolCC, "source"},
	{platform.PkgConfigBinary(), "dynamic"},
	{platform.ToolGo, "all (cgo -godefs)"},
}

func runDoctor(cmd *cobra.Command, args []string) error {
	plat := platform.Detect()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Platform: %s/%s\n\n", plat.OS, plat.Arch)

	var data [][]string
	for _, u := range toolUses {
		status, path := "✗ missing", ""
		if plat.Has(u.tool) {
			status, path = "✓", plat.Tools[u.tool]
		}
		data = append(data, []string{u.tool, status, u.used, path})
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"TOOL", "STATUS", "NEEDED BY", "PATH"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}
