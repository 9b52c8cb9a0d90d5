package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"configurator-backend/internal/app"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative tasks",
}

var adminPasswordOpts struct {
	dsn      string
	password string
}

var adminPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Set the admin password (stored as a bcrypt hash in settings)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if adminPasswordOpts.dsn == "" {
			return errors.New("--dsn or DATABASE_URL is required")
		}
		log := newLogger()
		ctx := cmd.Context()

		db, err := app.OpenDB(ctx, adminPasswordOpts.dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		a, err := app.New(ctx, db, app.Options{Logger: log})
		if err != nil {
			return err
		}
		if err := a.Env.SetAdminPassword(ctx, adminPasswordOpts.password); err != nil {
			return err
		}
		log.Info("admin password updated")
		return nil
	},
}

func init() {
	f := adminPasswordCmd.Flags()
	f.StringVar(&adminPasswordOpts.dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
	f.StringVar(&adminPasswordOpts.password, "password", os.Getenv("ADMIN_PASSWORD"), "new password, at least 8 characters")

	adminCmd.AddCommand(adminPasswordCmd)
}
