package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/you/buzoku/internal/app"
	"github.com/you/buzoku/internal/config"
	"github.com/you/buzoku/internal/infrastructure/auth"
	"github.com/you/buzoku/internal/infrastructure/database"
)

// Creates the tables and, unless -seed=false, the default casbin policies.
func main() {
	seed := flag.Bool("seed", true, "seed default casbin policies when the policy table is empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.Database.DSN, cfg.Database.Debug)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := (database.SQLPinger{DB: db}).Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("auto-migration failed", zap.Error(err))
	}
	logger.Info("migrations applied")

	if !*seed {
		return
	}
	cas, err := auth.NewCasbinService(db, cfg.Casbin.ModelPath)
	if err != nil {
		logger.Fatal("casbin init failed", zap.Error(err))
	}
	if err := cas.SeedDefaults(logger); err != nil {
		logger.Fatal("casbin seed failed", zap.Error(err))
	}

	var users, rules int64
	db.Table("users").Count(&users)
	db.Table("casbin_rule").Count(&rules)
	logger.Info("database ready", zap.Int64("users", users), zap.Int64("casbin_rules", rules))
}
