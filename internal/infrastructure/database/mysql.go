package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/matchdesk/cms/internal/config"
)

// Connection wraps the MySQL/TiDB pool.
// sql.DB is already safe for concurrent use and manages its own pool; it is not wrapped
// with extra locking.
type Connection struct {
	db *sql.DB
}

var tlsOnce sync.Once

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Connection, error) {
	if cfg.TLS {
		var regErr error
		tlsOnce.Do(func() {
			regErr = mysql.RegisterTLSConfig("cms", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: cfg.Host,
			})
		})
		if regErr != nil {
			return nil, fmt.Errorf("failed to register TLS config: %w", regErr)
		}
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns so connections are not churned under load.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

// Wrap adopts an existing pool (tests hand in a sqlmock database here).
func Wrap(db *sql.DB) *Connection {
	return &Connection{db: db}
}

// QueryContext executes a SELECT query with context
func (c *Connection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a SELECT query with context that returns at most one row
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes an INSERT, UPDATE, or DELETE query with context
func (c *Connection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a new transaction with context
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, opts)
}

// PingContext checks the database is reachable.
func (c *Connection) PingContext(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying *sql.DB
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}
