package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	db   *gorm.DB
	dbMu sync.RWMutex
)

// AllModels lists every table owned by the catalog, in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&Genre{},
		&Movie{},
		&TVShow{},
		&User{},
		&UserMovieWatchlist{},
		&UserTVShowWatchlist{},
		&MovieRating{},
		&TVShowRating{},
	}
}

// Open connects to the configured database without touching the global handle
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         NewGormLogger(logger.Named("gorm"), cfg.LogQueries),
		TranslateError: true,
	}

	var (
		conn *gorm.DB
		err  error
	)

	switch cfg.Type {
	case "postgres":
		conn, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), gormCfg)
	case "sqlite", "":
		if cfg.URL == "" && cfg.DatabasePath != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		conn, err = gorm.Open(sqlite.Open(cfg.SQLiteDSN()), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return conn, nil
}

// Initialize opens the database, migrates the schema and installs the
// handle returned by GetDB
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}

	dbMu.Lock()
	db = conn
	dbMu.Unlock()

	logger.Info("database initialized", "type", cfg.Type)
	return conn, nil
}

// Migrate creates or updates every table and registers the custom join tables
func Migrate(conn *gorm.DB) error {
	if err := SetupJoinTables(conn); err != nil {
		return err
	}
	if err := conn.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SetupJoinTables tells gorm to use the watchlist join models, which carry
// a created_at column the default join tables lack
func SetupJoinTables(conn *gorm.DB) error {
	if err := conn.SetupJoinTable(&User{}, "WatchlistMovies", &UserMovieWatchlist{}); err != nil {
		return fmt.Errorf("failed to set up movie watchlist join table: %w", err)
	}
	if err := conn.SetupJoinTable(&User{}, "WatchlistTVShows", &UserTVShowWatchlist{}); err != nil {
		return fmt.Errorf("failed to set up tv watchlist join table: %w", err)
	}
	return nil
}

// GetDB returns the database instance installed by Initialize
func GetDB() *gorm.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db
}

// Close releases the global connection pool
func Close() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}
