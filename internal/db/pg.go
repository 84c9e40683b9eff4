// Package db opens the PostgreSQL pool and applies the embedded schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// PostgreSQL error codes that get a clearer startup message.
const (
	codeInvalidCatalog = "3D000"
	codeInvalidAuth    = "28P01"
)

// ErrDatabaseMissing is returned by Open when the named database does not exist.
var ErrDatabaseMissing = errors.New("database does not exist")

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPool suits a single API instance.
func DefaultPool() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// redactDSN returns a copy of the DSN with password replaced by **** for logging.
func redactDSN(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "(invalid DATABASE_URL)"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

// extractDBName returns the database name from URL path ("/focusnest" -> "focusnest").
func extractDBName(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
}

// classifyConnectError turns well-known ping failures into readable errors.
func classifyConnectError(err error, dbName string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeInvalidCatalog:
			return fmt.Errorf("%w: %q: %v", ErrDatabaseMissing, dbName, err)
		case codeInvalidAuth:
			return fmt.Errorf("database authentication failed: %w", err)
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database") && strings.Contains(msg, "does not exist") {
		return fmt.Errorf("%w: %q: %v", ErrDatabaseMissing, dbName, err)
	}
	return fmt.Errorf("failed to ping database: %w", err)
}

// Open connects with DefaultPool.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	return OpenWithPool(ctx, databaseURL, DefaultPool())
}

// OpenWithPool builds a pq connector from databaseURL, sizes the pool and
// pings once so a bad URL fails at startup rather than on the first request.
func OpenWithPool(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	connector, err := pq.NewConnector(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	slog.InfoContext(ctx, "db connecting", "dsn", redactDSN(databaseURL))

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, classifyConnectError(err, extractDBName(u))
	}
	return db, nil
}
