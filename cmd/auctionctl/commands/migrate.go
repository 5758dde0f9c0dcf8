package commands

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"auction-analyzer/backend/internal/repository"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the analyses schema in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.DSN())
			if err != nil {
				return fmt.Errorf("failed to connect to DB: %w", err)
			}
			defer pool.Close()

			if err := repository.NewPostgresAnalysisStore(pool).Migrate(ctx); err != nil {
				return err
			}
			logger.Info("schema applied", "db", cfg.DB.Name, "host", cfg.DB.Host)
			return nil
		},
	}
	return cmd
}
