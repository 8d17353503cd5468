// Package testdb opens throwaway sqlite databases with the production schema
// for repository and handler tests.
package testdb

import (
	"fmt"

	accountDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/account"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory database with every table migrated. The pool is
// pinned to one connection because each sqlite :memory: connection is its own database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&accountDatamodel.Account{}, &employeeDatamodel.Employee{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
