// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/service"
)

// cliActor is recorded as the actor of allow-list changes made from the CLI.
const cliActor = ""

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage the admin allow-list",
	}

	var name, role string
	add := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Allow EMAIL to sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			svc := service.NewUserService(db, cfg.SuperAdminEmail, service.NewEventService(db))
			u, err := svc.Add(cmd.Context(), cliActor, args[0], name, role)
			if errors.Is(err, service.ErrDuplicateEmail) {
				return fmt.Errorf("%s is already authorized", args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s can now sign in as %s\n", u.Email, u.Role)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&role, "role", model.RoleEditor, "admin, editor or viewer")

	list := &cobra.Command{
		Use:   "list",
		Short: "List allowed users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			svc := service.NewUserService(db, cfg.SuperAdminEmail, nil)
			all, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "EMAIL\tROLE\tNAME\tADDED BY")
			_, _ = fmt.Fprintf(tw, "%s\t%s\t\t(super admin)\n", svc.SuperAdmin(), model.RoleAdmin)
			for _, u := range all {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Email, u.Role, u.Name.String, u.AddedBy.String)
			}
			return tw.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "remove EMAIL",
		Short: "Revoke EMAIL's access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			svc := service.NewUserService(db, cfg.SuperAdminEmail, service.NewEventService(db))
			u, err := svc.Lookup(cmd.Context(), args[0])
			if errors.Is(err, service.ErrNotFound) {
				return fmt.Errorf("%s is not on the allow-list", args[0])
			}
			if err != nil {
				return err
			}
			if _, err := svc.Remove(cmd.Context(), cliActor, u.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s can no longer sign in\n", u.Email)
			return nil
		},
	}

	users.AddCommand(add, list, remove)
	return users
}
