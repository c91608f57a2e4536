package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixml/multimorph"
)

// errMissingDiscriminants is returned by audit --strict when any row points
// at an owner without a relationship label.
var errMissingDiscriminants = errors.New("rows without a relationship label found")

func auditCmd(flags *globalFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report how rows are distributed over morph types and labels",
		Long: `Report how rows are distributed over morph types and labels.

Rows with a type but no relationship label are invisible to every labelled
relationship. They usually come from an inverse associate without a label.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, env, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer env.Close()

			db := env.db.Session(ctx)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "FAMILY\tTYPE\tRELATIONSHIP\tROWS")

			var missing int64
			for _, entry := range env.manifest.Morphs {
				opts := entry.Options(env.cfg.IDColumnType())
				counts, err := multimorph.Discriminants(ctx, db, entry.Table, entry.Name, opts...)
				if err != nil {
					return err
				}
				for _, c := range counts {
					label := c.Relationship
					if label == "" {
						label = "-"
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", entry, c.MorphType, label, c.Total)
				}

				n, err := multimorph.MissingDiscriminants(ctx, db, entry.Table, entry.Name, opts...)
				if err != nil {
					return err
				}
				if n > 0 {
					env.logger.WarnContext(ctx, "rows without relationship label", "table", entry.Table, "name", entry.Name, "rows", n)
				}
				missing += n
			}
			if err := w.Flush(); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "unlabelled rows: %d\n", missing)
			if strict && missing > 0 {
				return errMissingDiscriminants
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when unlabelled rows exist")

	return cmd
}
