package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tasktally/core/internal/infrastructure/config"
)

// Partition names. Each entity family lives in its own independently
// addressable store; operations never span two partitions.
const (
	PartitionUsers    = "users"
	PartitionTasks    = "tasks"
	PartitionSpending = "spending"
)

// DB holds one sqlx handle per storage partition.
type DB struct {
	Users    *sqlx.DB
	Tasks    *sqlx.DB
	Spending *sqlx.DB

	config config.DatabaseConfig
}

// DriverFor picks the SQL driver for a DSN. Postgres URLs go to lib/pq,
// everything else is treated as a SQLite file path (the local fallback).
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// Open connects all three partitions and verifies each with a ping.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	db := &DB{config: cfg}

	var err error
	if db.Users, err = openPartition(cfg, cfg.UsersDSN); err != nil {
		return nil, fmt.Errorf("open users partition: %w", err)
	}
	if db.Tasks, err = openPartition(cfg, cfg.TasksDSN); err != nil {
		db.Close()
		return nil, fmt.Errorf("open tasks partition: %w", err)
	}
	if db.Spending, err = openPartition(cfg, cfg.SpendingDSN); err != nil {
		db.Close()
		return nil, fmt.Errorf("open spending partition: %w", err)
	}

	return db, nil
}

func openPartition(cfg config.DatabaseConfig, dsn string) (*sqlx.DB, error) {
	driver := DriverFor(dsn)

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	if driver == "sqlite" {
		// A single connection avoids SQLITE_BUSY under concurrent writes
		// and keeps :memory: databases coherent.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return conn, nil
}

// Partitions returns the partitions by name, for migrations and health checks.
func (db *DB) Partitions() map[string]*sqlx.DB {
	return map[string]*sqlx.DB{
		PartitionUsers:    db.Users,
		PartitionTasks:    db.Tasks,
		PartitionSpending: db.Spending,
	}
}

// Close closes every open partition.
func (db *DB) Close() error {
	var firstErr error
	for _, conn := range []*sqlx.DB{db.Users, db.Tasks, db.Spending} {
		if conn == nil {
			continue
		}
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ping verifies every partition is reachable.
func (db *DB) Ping() error {
	for name, conn := range db.Partitions() {
		if err := conn.Ping(); err != nil {
			return fmt.Errorf("ping %s partition: %w", name, err)
		}
	}
	return nil
}

// HealthCheck pings every partition with a short deadline.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for name, conn := range db.Partitions() {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("%s partition health check failed: %w", name, err)
		}
	}
	return nil
}

// WithTransaction executes fn inside a transaction on one partition. A
// failure rolls everything back so partial writes never become visible.
func WithTransaction(ctx context.Context, conn *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
