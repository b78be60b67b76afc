package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"supplysphere/internal/app"
	"supplysphere/internal/core/session"
	"supplysphere/internal/domain"
	"supplysphere/internal/repo"
	"supplysphere/internal/service"
)

func newUserCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd(g), newUserStatusCmd(g), newUserListCmd(g))
	return cmd
}

func newUserCreateCmd(g *globals) *cobra.Command {
	var in service.RegisterInput
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with any role (including admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := g.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			in.Role = domain.Role(role)
			u, err := service.CreateUser(cmd.Context(), repo.NewUserRepo(db), in, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "login email")
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&role, "role", string(domain.RoleSupplier), "supplier | vendor | analyst | admin")
	f.StringVar(&in.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// revokeSessions 仅 redis 会话后端可跨进程踢人
func (g *globals) revokeSessions(ctx context.Context, uid string) (int, error) {
	if g.cfg.Session.Backend != "redis" || g.cfg.Redis.Addr == "" {
		return 0, nil
	}
	rdb, err := app.OpenRedis(ctx, g.cfg.Redis)
	if err != nil {
		return 0, err
	}
	defer rdb.Close()
	return session.NewRedisStore(rdb).DeleteUser(ctx, uid)
}

func newUserStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status <email> <active|inactive|suspended>",
		Short: "Change an account status; sessions are revoked unless active",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := domain.Status(args[1])
			if !st.Valid() {
				return fmt.Errorf("%w: status %q", domain.ErrInvalidInput, args[1])
			}
			db, closeDB, err := g.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			users := repo.NewUserRepo(db)
			u, err := users.FindByEmail(cmd.Context(), service.NormalizeEmail(args[0]))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			u.Status = st
			if err := users.Update(cmd.Context(), u, "status"); err != nil {
				return err
			}
			n := 0
			if st != domain.StatusActive {
				if n, err = g.revokeSessions(cmd.Context(), u.ID); err != nil {
					return fmt.Errorf("status saved but session revoke failed: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (%d sessions revoked)\n", u.Email, st, n)
			return nil
		},
	}
}

func newUserListCmd(g *globals) *cobra.Command {
	var f domain.UserFilter
	var role, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := g.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			f.Role, f.Status = domain.Role(role), domain.Status(status)
			items, total, err := repo.NewUserRepo(db).List(cmd.Context(), f)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tSTATUS")
			for _, u := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(items), total)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.Q, "query", "q", "", "match name or email")
	fl.StringVar(&role, "role", "", "filter by role")
	fl.StringVar(&status, "status", "", "filter by status")
	fl.IntVar(&f.Limit, "limit", 50, "page size")
	fl.IntVar(&f.Offset, "offset", 0, "page offset")
	return cmd
}
