package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var current atomic.Pointer[gorm.DB]

// Open connects to the configured database. The agent uses sqlite; mysql
// lets several machines share one policy database.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		if dir := filepath.Dir(dsn); dsn != "" && dir != "." && !isMemoryDSN(dsn) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	// each connection to an in-memory sqlite database sees its own database
	if driver != "mysql" && isMemoryDSN(dsn) {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return gdb, nil
}

// Init opens the database, migrates it and makes it available through Get.
func Init(driver, dsn string) (*gorm.DB, error) {
	gdb, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&StoredValue{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	current.Store(gdb)
	return gdb, nil
}

// Get returns the database opened by Init, or nil.
func Get() *gorm.DB { return current.Load() }

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}
