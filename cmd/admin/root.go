package main

import (
	"database/sql"
	"fmt"

	"trainingportal/config"

	"github.com/spf13/cobra"
)

// openDB is replaced in tests.
var openDB = func(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type rootOptions struct {
	databaseURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Training portal administration",
		Long:          `Admin runs schema migrations, grants roles and prints calendar grids.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newGrantRoleCmd(opts),
		newGridCmd(),
	)
	return cmd
}

func (o *rootOptions) db() (*sql.DB, error) {
	dsn := o.databaseURL
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dsn = cfg.DBUrl
	}
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
