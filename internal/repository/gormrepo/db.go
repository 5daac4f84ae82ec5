// Package gormrepo implements the repositories on top of gorm, backed by
// Postgres in production or SQLite for single-node installs.
package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/atendimento/crm-dashboard/internal/repository"
)

// Config holds database connection settings.
type Config struct {
	DSN          string
	MaxOpenConns int
	LogQueries   bool
}

// dialect picks the gorm dialector for dsn and returns the mode name.
func dialect(dsn string) (gorm.Dialector, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return postgres.Open(dsn), "postgres", nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), "sqlite", nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), "sqlite", nil
	}
	return nil, "", fmt.Errorf("unsupported database url %q", dsn)
}

// Open connects, migrates the schema and returns the repository set.
func Open(ctx context.Context, cfg Config) (*repository.Store, error) {
	dialector, mode, err := dialect(cfg.DSN)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Warn
	if cfg.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	switch {
	case mode == "sqlite":
		sqlDB.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &repository.Store{
		Mode:          mode,
		Conversations: NewConversationRepository(db),
		Leads:         NewLeadRepository(db),
		QuickMessages: NewQuickMessageRepository(db),
		Ping:          sqlDB.PingContext,
		Close:         sqlDB.Close,
	}, nil
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&conversationRow{}, &leadRow{}, &quickMessageRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrConflict
	}
	return err
}
