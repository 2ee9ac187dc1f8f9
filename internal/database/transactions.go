package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mantonx/cinecache/internal/logger"
	"gorm.io/gorm"
)

// TransactionManager runs units of work in a single transaction
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction executes fn inside a transaction. Any error or panic
// rolls the whole unit back.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	started := time.Now()
	err := tm.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		logger.Debug("transaction rolled back", "duration", time.Since(started), "error", err)
		return err
	}
	logger.Debug("transaction committed", "duration", time.Since(started))
	return nil
}

// ConnectionStats summarizes the connection pool
type ConnectionStats struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// Stats returns pool statistics for the health endpoint
func (tm *TransactionManager) Stats() (ConnectionStats, error) {
	sqlDB, err := tm.db.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get sql handle: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
	}, nil
}

// Ping checks the database is reachable
func (tm *TransactionManager) Ping(ctx context.Context) error {
	sqlDB, err := tm.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
