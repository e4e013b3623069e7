package main

import (
	"log"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables (mysql) or indexes (mongo) for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := loadStore(ctx)
			if err != nil {
				return err
			}
			defer st.close()

			if err := st.migrate(ctx); err != nil {
				return err
			}
			log.Printf("migrated store=%s", cfg.StoreDriver)
			return nil
		},
	}
}
