package cmd

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/course-payments/db"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "run the embedded sql migrations against the payments or users database",
	}
	migrateRollback bool
	migrateTarget   string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().StringVarP(&migrateTarget, "target", "t", string(db.TargetPayments), "database to migrate: payments or users")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	target := db.Target(migrateTarget)
	if !target.Valid() {
		return fmt.Errorf("unknown migration target %q", migrateTarget)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	dsn := cfg.PaymentsDatabase.GetDSN()
	if target == db.TargetUsers {
		dsn = cfg.UsersDatabase.GetDSN()
	}

	return migrate(cmd.Context(), dsn, target, migrateRollback)
}

func migrate(ctx context.Context, dsn string, target db.Target, rollback bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	conn, err := goose.OpenDBWithDriver(pgxDriver, dsn)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	command := "up"
	if rollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, conn, target.Dir()); err != nil {
		return fmt.Errorf("goose %s (%s): %w", command, target, err)
	}
	return nil
}
