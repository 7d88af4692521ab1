package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/database/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply the embedded SQL migrations that have not yet been recorded in
schema_migrations. Running it again is a no-op.

Examples:
  attendance migrate
  attendance migrate --json`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("json", false, "Output as JSON")
}

// MigrateResult is the JSON output of the migrate command.
type MigrateResult struct {
	Applied []string `json:"applied"`
	All     []string `json:"all"`
}

func runMigrate(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	applied, err := pool.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	all, err := pool.MigrationsApplied(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(MigrateResult{Applied: applied, All: all})
	}
	for _, name := range applied {
		logger.Info("applied migration", zap.String("migration", name))
	}
	if len(applied) == 0 {
		fmt.Println("Database is up to date.")
	} else {
		fmt.Printf("Applied %d migration(s).\n", len(applied))
	}
	if len(all) > 0 {
		fmt.Printf("Schema version: %s\n", all[len(all)-1])
	}
	return nil
}
