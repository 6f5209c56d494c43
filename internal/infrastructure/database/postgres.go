package database

import (
	"context"
	"fmt"
	"strings"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/you/buzoku/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a database connection. DSNs prefixed with "sqlite:" open a
// sqlite database, anything else is handed to the postgres driver.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	config := &gorm.Config{Logger: logger.Default.LogMode(level)}

	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return gorm.Open(sqlite.Open(path), config)
	}
	return gorm.Open(postgres.Open(dsn), config)
}

// AutoMigrate creates the user, notification preference and casbin tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&repositories.DBUser{}, &repositories.DBNotificationPreferences{}); err != nil {
		return fmt.Errorf("failed to migrate user tables: %w", err)
	}

	// the adapter creates casbin_rule on construction
	if _, err := gormadapter.NewAdapterByDB(db); err != nil {
		return fmt.Errorf("failed to initialize Casbin GORM adapter: %w", err)
	}
	return nil
}

// SQLPinger checks the connection pool behind a gorm handle
type SQLPinger struct{ DB *gorm.DB }

func (p SQLPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
