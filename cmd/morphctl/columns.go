package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixml/multimorph"
)

func columnsCmd() *cobra.Command {
	var (
		typeColumn string
		idColumn   string
		table      string
	)

	cmd := &cobra.Command{
		Use:   "columns NAME",
		Short: "Print the columns derived for a morph name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols := multimorph.Morphs(args[0], typeColumn, idColumn).Qualify(table)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "type\t%s\n", cols.Type)
			_, _ = fmt.Fprintf(w, "id\t%s\n", cols.ID)
			_, _ = fmt.Fprintf(w, "relationship\t%s\n", cols.Relationship)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&typeColumn, "type-column", "", "Override the {name}_type column")
	cmd.Flags().StringVar(&idColumn, "id-column", "", "Override the {name}_id column")
	cmd.Flags().StringVar(&table, "table", "", "Qualify the columns with a table name")

	return cmd
}
