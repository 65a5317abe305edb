// internal/cli/env.go
package cli

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/arc-language/aom-sys/pkg/core"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List recognised environment variables",
	Long:  `List the environment variables aom-sys reads, with their current values.`,
	Args:  cobra.NoArgs,
	RunE:  runEnv,
}

func runEnv(cmd *cobra.Command, args []string) error {
	var data [][]string
	for _, v := range core.Variables(os.LookupEnv) {
		value := v.Value
		if value == "" {
			if _, ok := os.LookupEnv(v.Name); ok {
				value = "(set)"
			}
		}
		data = append(data, []string{v.Name, value, v.Description})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}
