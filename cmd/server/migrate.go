package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"transcript/internal/platform/database"
	"transcript/internal/platform/logger"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
			}
			ctx := cmd.Context()
			log := logger.New(cmd.ErrOrStderr(), logger.ParseLogLevel("info"), "dev")

			db, err := database.Open(ctx, database.Config{URL: databaseURL})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(ctx, db, log); err != nil {
				return err
			}
			v, err := database.Version(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	return cmd
}
