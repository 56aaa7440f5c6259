package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casapps/cascontacts/src/internal/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			newLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if err := database.MigrateDB(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Database is up to date")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				if _, err := fmt.Sscanf(args[0], "%d", &steps); err != nil {
					return fmt.Errorf("invalid steps %q: %w", args[0], err)
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			manager, err := database.NewMigrationManager(db, db.Dialector.Name())
			if err != nil {
				return err
			}
			defer manager.Close()

			return manager.Down(steps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			status, err := database.GetMigrationStatus(db, db.Dialector.Name())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %d\nlatest: %d\ndirty: %v\ndatabase: %s\n",
				status.Version, status.Latest, status.Dirty, status.DatabaseType)
			if status.Pending() {
				fmt.Fprintln(out, "⚠️  Pending migrations, run `cascontacts migrate`")
			}
			return nil
		},
	})

	return cmd
}
