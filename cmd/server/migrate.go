package main

import (
	"github.com/spf13/cobra"

	"taskcalendar/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(func(r *migrations.Runner) error { return r.Up() })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(func(r *migrations.Runner) error { return r.Down() })
	},
}

func withRunner(fn func(*migrations.Runner) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	r, err := migrations.New(cfg.MigrateURL(), log)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
