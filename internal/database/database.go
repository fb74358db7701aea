package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens and pings the primary Read/Write pool. The DSN is adjusted so
// DATETIME columns scan into time.Time and UPDATE row counts report matched
// rows rather than changed rows.
func OpenDB(ctx context.Context, dsn string, pool PoolConfig, logger *zap.Logger) (*sql.DB, error) {
	// 1. Normalize the DSN.
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	// 2. Open a new connection pool.
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// 3. Configure the connection pool settings.
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	// 4. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database connection pool established",
		zap.String("addr", cfg.Addr),
		zap.String("db", cfg.DBName),
		zap.Int("max_open_conns", pool.MaxOpenConns))
	return db, nil
}
