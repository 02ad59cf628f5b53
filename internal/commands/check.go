package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"odpic-bindgen/internal/driver"
)

// CheckCmd creates the 'check' command comparing the catalog with dpi.h.
func CheckCmd(opts *globalOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the documentation catalog with the public header",
		Long: `Check reports, without generating anything:

  - functions declared in dpi.h but missing from the classification
  - documented functions that dpi.h doesn't declare
  - struct and union members documented or declared on one side only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}

			diags, err := driver.Check(cfg.Driver)
			if err != nil {
				return err
			}

			var data [][]string
			for _, w := range diags.Warnings {
				data = append(data, []string{w.Code, w.Item, w.Message})
			}

			out := cmd.OutOrStdout()

			if len(data) == 0 {
				fmt.Fprintln(out, "Catalog and header agree")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"CODE", "ITEM", "MESSAGE"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()

			if strict {
				return fmt.Errorf("%d disagreement(s) between catalog and header", len(data))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when anything disagrees")

	return cmd
}
