package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casapps/cascontacts/src/internal/database"
	"github.com/casapps/cascontacts/src/internal/database/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func testConfig() *viper.Viper {
	cfg := viper.New()
	cfg.Set("app.name", "cascontacts")
	cfg.Set("app.locale", "en")
	cfg.Set("cache.enabled", true)
	cfg.Set("cache.ttl", "1m")
	return cfg
}

func createAccount(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	account := &models.Account{}
	require.NoError(t, db.Create(account).Error)
	return account.ID
}

func createContact(t *testing.T, db *gorm.DB, accountID uuid.UUID, name string) *models.Contact {
	t.Helper()
	contact := &models.Contact{AccountID: accountID, FirstName: name}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

func mustTagInput(t *testing.T, raw string) *TagInput {
	t.Helper()
	input, err := ParseTagInput([]byte(raw))
	require.NoError(t, err)
	return input
}

var bg = context.Background()
