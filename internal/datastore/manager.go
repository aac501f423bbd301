// Package datastore opens the relational store backing recordings, folders and
// speakers. SQLite is the default backend; MySQL is supported for shared
// deployments.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

// Manager owns a database connection and its schema.
type Manager interface {
	// Initialize creates or updates the schema.
	Initialize(ctx context.Context) error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host/database for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// IsMySQL reports whether row locks are available.
	IsMySQL() bool
}

// Config holds the settings shared by both managers.
type Config struct {
	// Logger receives SQL traces and slow query warnings. Nil discards them.
	Logger logger.Logger
	// SlowQueryThreshold marks queries logged at WARN; 0 disables it.
	SlowQueryThreshold time.Duration
}

func (c Config) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(c.Logger, c.SlowQueryThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// SQLiteManager handles a single SQLite database file.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteManager opens (creating if needed) the database file at path.
func NewSQLiteManager(path string, cfg Config) (*SQLiteManager, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	// Immediate transactions take the write lock at BEGIN, so two writers
	// serialize on busy_timeout instead of failing with SQLITE_BUSY on upgrade.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate", path)

	db, err := gorm.Open(sqlite.Open(dsn), cfg.gormConfig())
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	return &SQLiteManager{db: db, dbPath: path}, nil
}

// Initialize runs the auto-migrations.
func (m *SQLiteManager) Initialize(ctx context.Context) error {
	return migrate(ctx, m.db)
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Delete closes the connection and removes the database file along with its
// WAL and SHM companions.
func (m *SQLiteManager) Delete() error {
	if err := m.Close(); err != nil {
		return fmt.Errorf("failed to close database before deletion: %w", err)
	}
	if err := os.Remove(m.dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(m.dbPath + suffix)
	}
	return nil
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}

func migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(entities.All()...); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "migrate").
			Build()
	}
	return nil
}

// Open returns an unmigrated manager for the configured backend.
func Open(settings *conf.DatabaseSettings, log logger.Logger) (Manager, error) {
	cfg := Config{Logger: log, SlowQueryThreshold: settings.SlowQueryThreshold}
	switch settings.Type {
	case conf.DatabaseMySQL:
		return NewMySQLManager(&settings.MySQL, cfg)
	case conf.DatabaseSQLite, "":
		return NewSQLiteManager(settings.SQLite.Path, cfg)
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}
