package main

import (
	"context"
	"os"
	"time"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/seed"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "seed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logging.IntoContext(ctx, logger)

	open := db.Open
	dsn := cfg.DatabaseURL
	if dsn == "" {
		config.MustNonEmpty(cfg.SQLitePath, "DATABASE_URL or SQLITE_PATH")
		open, dsn = db.OpenSQLite, cfg.SQLitePath
	}

	gdb, err := open(ctx, dsn)
	if err != nil {
		logger.Error("db init error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	r := &repo.GormRepo{DB: gdb}
	if err := r.Migrate(ctx); err != nil {
		logger.Error("db migrate error", "error", err)
		os.Exit(1)
	}
	if err := seed.Run(ctx, r); err != nil {
		logger.Error("seed error", "error", err)
		os.Exit(1)
	}
}
