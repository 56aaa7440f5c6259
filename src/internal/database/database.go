package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casapps/cascontacts/src/internal/database/models"
)

const defaultMaxConnections = 25

// sqlitePragmas are applied to every pooled SQLite connection
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Initialize opens the configured database, registers the contact/tag join
// table and checks the connection.
func Initialize(cfg *viper.Viper) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.GetString("database.type"), cfg.GetString("database.dsn"))
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if cfg.GetBool("debug") {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := models.SetupJoinTables(db); err != nil {
		return nil, fmt.Errorf("failed to register join tables: %w", err)
	}

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	if err := Ping(db); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func dialectorFor(dbType, dsn string) (gorm.Dialector, error) {
	switch dbType {
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite", "":
		if dsn != "" && !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

func configurePool(db *gorm.DB, cfg *viper.Viper) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	maxConns := cfg.GetInt("database.max_connections")
	if maxConns <= 0 {
		maxConns = defaultMaxConnections
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns / 2)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.GetInt("database.max_idle_time")) * time.Second)

	return nil
}

// MigrateDB brings the schema up to date from the embedded SQL migrations
func MigrateDB(db *gorm.DB) error {
	if err := RunMigrations(db, db.Dialector.Name()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// AutoMigrate creates the schema straight from the models. Used by tests and
// throwaway databases where migration history does not matter.
func AutoMigrate(db *gorm.DB) error {
	if err := models.SetupJoinTables(db); err != nil {
		return err
	}
	return db.AutoMigrate(models.GetAllModels()...)
}

// Ping checks that the database answers
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
