// Package database opens the backing store and keeps the schema migrated.
package database

import (
	"fmt"
	"strings"

	"inkwell/config"
	"inkwell/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the store named by the DSN and migrates the schema. A DSN
// starting with postgres:// (or in key=value form) selects the postgres
// driver; anything else is treated as a sqlite file path.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseDSN

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}
