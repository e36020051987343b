package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/teemow/calbooker/internal/session"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres session store migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if appConfig.DatabaseURL == "" {
				return fmt.Errorf("--database-url (or DATABASE_URL) is required")
			}

			pool, err := pgxpool.New(cmd.Context(), appConfig.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer pool.Close()

			return session.Migrate(cmd.Context(), pool, appLogger)
		},
	}

	cmd.Flags().String("database-url", "", "Postgres connection string")

	return cmd
}
