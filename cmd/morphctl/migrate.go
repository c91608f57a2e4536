package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/helixml/multimorph"
	"github.com/helixml/multimorph/internal/database"
)

func migrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Add missing morph columns and indexes for every manifest entry",
		Long: `Add missing morph columns and indexes for every manifest entry.

All entries are migrated in one transaction: either every table gains its
columns or none does. Tables must already exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, env, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			return database.WithTransaction(ctx, env.db.GORM(), func(tx *gorm.DB) error {
				for _, entry := range env.manifest.Morphs {
					added, err := multimorph.EnsureColumns(ctx, tx, entry.Table, entry.Name, entry.Options(env.cfg.IDColumnType())...)
					if err != nil {
						return fmt.Errorf("migrate %s: %w", entry, err)
					}
					if len(added) == 0 {
						_, _ = fmt.Fprintf(out, "%s: up to date\n", entry)
						continue
					}
					_, _ = fmt.Fprintf(out, "%s: added %s\n", entry, strings.Join(added, ", "))
					env.logger.InfoContext(ctx, "morph columns added", "table", entry.Table, "name", entry.Name, "columns", added)
				}
				return nil
			})
		},
	}
}
