package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/casapps/cascontacts/src/internal/config"
	"github.com/casapps/cascontacts/src/internal/database"
	"github.com/casapps/cascontacts/src/pkg/utils"
)

var (
	Version = "dev"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cascontacts",
		Short:         "Account-scoped contact tagging API",
		Long:          `CasContacts serves a JSON API for tagging contacts, with per-account isolation and per-user locales.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUserCmd(),
		newVersionCmd(),
		newConfigCheckCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CasContacts v%s\n", Version)
		},
	}
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-check",
		Short: "Validate configuration and database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "🔍 Checking CasContacts configuration...")

			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(out, "❌ Configuration loading failed: %v\n", err)
				return err
			}
			fmt.Fprintln(out, "✅ Configuration loaded successfully")

			db, err := openDatabase(cfg)
			if err != nil {
				fmt.Fprintf(out, "❌ Database connection failed: %v\n", err)
				return err
			}
			closeDatabase(db)
			fmt.Fprintln(out, "✅ Database connection successful")

			fmt.Fprintln(out, "\n🎉 Configuration is valid and ready!")
			return nil
		},
	}
}

// loadConfig reads the config file named by --config, or the default search
// path, and validates it
func loadConfig() (*viper.Viper, error) {
	var (
		cfg *viper.Viper
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openDatabase(cfg *viper.Viper) (*gorm.DB, error) {
	db, err := database.Initialize(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newLogger() *slog.Logger {
	logger := utils.NewLogger()
	slog.SetDefault(logger)
	return logger
}
