package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL approval store
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL approval store
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Embedded SQLite approval store
)

// Supported drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DetectDriver picks a driver from the database URL and returns the DSN to
// hand to it. URLs that are neither postgres nor sqlite are treated as MySQL
// DSNs.
func DetectDriver(databaseURL string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"):
		return DriverSQLite, databaseURL
	case strings.HasSuffix(databaseURL, ".db"), strings.HasSuffix(databaseURL, ".sqlite"):
		return DriverSQLite, sqliteDSN(databaseURL)
	case strings.HasPrefix(databaseURL, "mysql://"):
		return DriverMySQL, strings.TrimPrefix(databaseURL, "mysql://")
	default:
		return DriverMySQL, databaseURL
	}
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// New opens a connection pool for the database URL and verifies it with a
// ping. SQLite files have their parent directory created first.
func New(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	driver, dsn := DetectDriver(databaseURL)
	if driver == DriverSQLite {
		if dir := filepath.Dir(sqlitePath(dsn)); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool settings
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Database connection established")
	return db, nil
}

// ReadQuery runs a select inside a transaction that is always rolled back.
func ReadQuery(ctx context.Context, db *sqlx.DB, dest interface{}, query string, args ...interface{}) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer rollback(tx)

	if err := tx.SelectContext(ctx, dest, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to execute read query: %w", err)
	}
	return nil
}

// ReadQuerySingle is ReadQuery for a single row. A missing row surfaces as
// sql.ErrNoRows, wrapped.
func ReadQuerySingle(ctx context.Context, db *sqlx.DB, dest interface{}, query string, args ...interface{}) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer rollback(tx)

	if err := tx.GetContext(ctx, dest, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to execute read query: %w", err)
	}
	return nil
}

// Ping checks the connection by running a trivial query.
func Ping(ctx context.Context, db *sqlx.DB) error {
	var result int
	if err := db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("failed to execute ping query: %w", err)
	}
	return nil
}

func rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil {
		log.Warn().Err(err).Msg("Error rolling back read transaction")
	}
}
