package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager applies the embedded schema migrations to an open
// database. The database handle stays owned by the caller.
type MigrationManager struct {
	migrate *migrate.Migrate
	source  source.Driver
	dbType  string
	logger  *slog.Logger
}

// MigrationStatus describes where a database sits in the migration history
type MigrationStatus struct {
	Version      uint
	Latest       uint
	Dirty        bool
	DatabaseType string
}

// Pending reports whether migrations remain to be applied
func (s MigrationStatus) Pending() bool {
	return s.Version < s.Latest
}

// NewMigrationManager creates a migration manager for db. dbType is the GORM
// dialector name.
func NewMigrationManager(db *gorm.DB, dbType string) (*MigrationManager, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	dbDriver, err := driverFor(sqlDB, dbType)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dbType, dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &MigrationManager{
		migrate: m,
		source:  sourceDriver,
		dbType:  dbType,
		logger:  slog.Default().With("component", "migrations"),
	}, nil
}

func driverFor(sqlDB *sql.DB, dbType string) (database.Driver, error) {
	switch dbType {
	case "sqlite", "sqlite3":
		return sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	case "postgres", "postgresql":
		return postgres.WithInstance(sqlDB, &postgres.Config{})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{})
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// Up applies every pending migration
func (m *MigrationManager) Up() error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Debug("Schema already up to date", "database", m.dbType)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.logger.Info("Schema migrated", "database", m.dbType)
	return nil
}

// Down rolls back the last steps migrations
func (m *MigrationManager) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0")
	}

	if err := m.migrate.Steps(-steps); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	m.logger.Info("Migrations rolled back", "database", m.dbType, "steps", steps)
	return nil
}

// Version returns the current migration version
func (m *MigrationManager) Version() (uint, bool, error) {
	return m.migrate.Version()
}

// Status reports the applied and the newest available version. A database
// that never ran a migration is at version 0.
func (m *MigrationManager) Status() (MigrationStatus, error) {
	status := MigrationStatus{DatabaseType: m.dbType}

	version, dirty, err := m.migrate.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return status, fmt.Errorf("failed to get migration version: %w", err)
	default:
		status.Version = version
		status.Dirty = dirty
	}

	latest, err := m.latest()
	if err != nil {
		return status, err
	}
	status.Latest = latest

	return status, nil
}

func (m *MigrationManager) latest() (uint, error) {
	version, err := m.source.First()
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}
	for {
		next, err := m.source.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read migrations: %w", err)
		}
		version = next
	}
}

// Close releases the migration source. The database driver wraps the
// application's *sql.DB and is not closed here.
func (m *MigrationManager) Close() error {
	if err := m.source.Close(); err != nil {
		return fmt.Errorf("failed to close source: %w", err)
	}
	return nil
}

// RunMigrations applies every pending migration to db
func RunMigrations(db *gorm.DB, dbType string) error {
	manager, err := NewMigrationManager(db, dbType)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}
	defer manager.Close()

	return manager.Up()
}

// GetMigrationStatus reports the migration state of db
func GetMigrationStatus(db *gorm.DB, dbType string) (MigrationStatus, error) {
	manager, err := NewMigrationManager(db, dbType)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to create migration manager: %w", err)
	}
	defer manager.Close()

	return manager.Status()
}
