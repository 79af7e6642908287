package config

import (
	"errors"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/mockmate/internal/models"
)

var PostgresDB *gorm.DB

func InitPostgres() error {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return errors.New("POSTGRES_URI environment variable is not set")
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	PostgresDB = db
	return nil
}

// MigratePostgres enables pgvector and creates or updates the tables.
// Skipped when POSTGRES_AUTO_MIGRATE=false.
func MigratePostgres() error {
	if PostgresDB == nil {
		return errors.New("PostgresDB is nil; call InitPostgres() first")
	}
	if os.Getenv("POSTGRES_AUTO_MIGRATE") == "false" {
		return nil
	}
	if err := PostgresDB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return PostgresDB.AutoMigrate(
		&models.Interview{},
		&models.ConversationLog{},
		&models.CVFile{},
		&models.Profile{},
	)
}
