package main

import (
	"github.com/MrEthical07/tutorAuth/credstore/postgres"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the principal tables schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withMigrator(func(m *postgres.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					cmd.Println("Migrations completed successfully")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withMigrator(func(m *postgres.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("Migrations rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withMigrator(func(m *postgres.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					cmd.Printf("version %d (dirty: %t)\n", v, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) withMigrator(fn func(*postgres.Migrator) error) error {
	dsn := a.settings.Postgres.DSN
	if dsn == "" {
		return oops.Code("CONFIG_INVALID").Errorf("postgres.dsn is required to run migrations")
	}
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}
