package main

import (
	"fmt"
	"strings"

	"trainingportal/internal/domain"
	"trainingportal/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func newGrantRoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-role EMAIL ROLE",
		Short: "Grant a role (admin, trainer, trainee) to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))
			role := strings.ToLower(strings.TrimSpace(args[1]))
			if !domain.ValidRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}

			db, err := opts.db()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			users := postgres.NewUserRepository(db)
			user, err := users.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("find user %s: %w", email, err)
			}
			r, err := postgres.NewRoleRepository(db).GetByCode(ctx, role)
			if err != nil {
				return fmt.Errorf("find role %s: %w", role, err)
			}
			if err := users.AssignRole(ctx, user.ID, r.ID); err != nil {
				return fmt.Errorf("assign role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", role, email)
			return nil
		},
	}
}
