package main

import (
	"context"
	"database/sql"

	"trainingportal/migrations"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var gooseRunFunc = goose.RunContext // mockable

func init() {
	goose.SetBaseFS(migrations.FS)
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	for _, sub := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Print the status of every migration"},
	} {
		command := sub.use
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := opts.db()
				if err != nil {
					return err
				}
				defer db.Close()
				return migrate(cmd.Context(), db, command)
			},
		})
	}
	return cmd
}

func migrate(ctx context.Context, db *sql.DB, command string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(ctx, command, db, ".")
}
