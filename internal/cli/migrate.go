package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"riddleme-service/internal/config"
	pgmigrations "riddleme-service/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres game_state table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level, cfg.Log.Pretty)
	return runMigrationsWithConfig(ctx, cfg)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations table: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		log.Info().Msg("no new migrations")
		return nil
	}
	log.Info().
		Str("group", group.String()).
		Strs("migrations", migrationNames(group.Migrations)).
		Msg("migrations applied")
	return nil
}

// migrationNames renders migrations as "<name>_<comment>", matching their source files.
func migrationNames(ms migrate.MigrationSlice) []string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.Comment == "" {
			names = append(names, m.Name)
			continue
		}
		names = append(names, m.Name+"_"+m.Comment)
	}
	return names
}
