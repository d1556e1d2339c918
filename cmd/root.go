package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/uggybe/storage-buddy-bot/internal/core/logger"
	"github.com/uggybe/storage-buddy-bot/internal/database/migration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run migrations manually.",
		Long:  `Command that exists and should be used only for development purposes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL := os.Getenv("DATABASE_URL")
			migrationDir, _ := cmd.Flags().GetString("dir")

			err := migration.Migrate(
				dbURL,
				fmt.Sprintf("file://%s", migrationDir),
				logger.NewLogger(),
			)
			if err != nil {
				log.Println(err.Error())
				return fmt.Errorf("migrate database: %w", err)
			}

			return nil
		},
	}
	cmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
	return cmd
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storage-buddy",
		Short: "Warehouse inventory tracking service",
	}
	rootCmd.AddCommand(newMigrateCmd())
	return rootCmd
}

func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
