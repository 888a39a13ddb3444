// Package db opens GORM connections and manages schema migration.
package db

import (
	"fmt"

	"github.com/thesisgrey/greylit/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from database settings. parseTime is required
// for time.Time scanning.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("root@tcp(%s:%d)/%s?parseTime=true", cfg.Host, cfg.Port, cfg.Name)
}

// Connect opens a GORM connection for the configured driver. SQLite is
// the local default; MySQL serves shared deployments.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", cfg.Path, err)
		}
		return db, nil
	case "mysql":
		db, err := gorm.Open(mysql.Open(DSN(cfg)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}
