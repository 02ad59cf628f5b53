package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/driver"
)

// ClassifyCmd creates the 'classify' command printing the function
// partition.
func ClassifyCmd(opts *globalOptions) *cobra.Command {
	var blocking, nonBlocking bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show which functions may wait on a network round-trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}

			c, cls, err := driver.LoadCatalog(cfg.Driver)
			if err != nil {
				return err
			}

			var include []catalog.RoundTrips

			switch {
			case blocking:
				include = []catalog.RoundTrips{catalog.RoundTripsYes, catalog.RoundTripsMaybe}
			case nonBlocking:
				include = []catalog.RoundTrips{catalog.RoundTripsNo}
			}

			var data [][]string

			for _, name := range cls.Names(include...) {
				r, _ := cls.Classify(name)

				binding := "public"
				if r.MayBlock() {
					binding = "blocking"
				}

				documented := "yes"
				if _, ok := c.Function(name); !ok {
					documented = "no"
				}

				data = append(data, []string{name, r.String(), binding, documented})
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"FUNCTION", "ROUND-TRIPS", "BINDING", "DOCUMENTED"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoFormatHeaders(false)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d function(s)\n", len(data))

			return nil
		},
	}

	cmd.Flags().BoolVar(&blocking, "blocking", false, "Only list functions classified Yes or Maybe")
	cmd.Flags().BoolVar(&nonBlocking, "non-blocking", false, "Only list functions classified No")
	cmd.MarkFlagsMutuallyExclusive("blocking", "non-blocking")

	return cmd
}
