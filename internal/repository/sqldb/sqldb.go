// Package sqldb implements the repository interfaces on top of database/sql.
//
// Two backends are supported and picked from the DATABASE_URL:
//   - SQLite through modernc.org/sqlite (pure Go, no CGo). The default, and
//     what every test uses via ":memory:".
//   - PostgreSQL through pgx's database/sql adapter (github.com/jackc/pgx/v5/stdlib).
//
// Both run the same queries. They are written once with ? placeholders and
// rebound to $1, $2, ... for PostgreSQL before they hit the driver.
//
// The schema lives in embedded goose migrations, one directory per dialect.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Both imports register a database/sql driver in init():
	// "pgx" for PostgreSQL and "sqlite" for SQLite.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. Users and Feedback hand out the
// repository implementations that share it.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to databaseURL, applies pending migrations and returns a
// ready-to-use DB.
//
//	db, err := sqldb.Open(ctx, "data/feedback.db", logger)
//	if err != nil { ... }
//	defer db.Close()
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*DB, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	// sql.Open only builds the pool; PingContext forces a real connection so
	// a bad path or unreachable server fails here and not on the first request.
	conn, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: opening %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		// SQLITE AND THE POOL:
		// PRAGMAs are per connection, and every connection to ":memory:" is a
		// brand new empty database. One connection keeps both consistent.
		// SQLite serialises writers anyway, so nothing is lost.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: pinging %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		if err := configureSQLite(ctx, conn, dsn); err != nil {
			conn.Close()
			return nil, err
		}
	}

	db := &DB{conn: conn, dialect: dialect, logger: logger}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: running migrations: %w", err)
	}

	logger.Info("database ready", "dialect", dialect.String())
	return db, nil
}

func configureSQLite(ctx context.Context, conn *sql.DB, dsn string) error {
	// Foreign keys are OFF by default in SQLite. ON DELETE CASCADE from users
	// to feedback depends on them.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("sqldb: enabling foreign keys: %w", err)
	}

	if IsMemory(dsn) {
		return nil
	}

	// WAL lets readers keep going while a write is in progress.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("sqldb: setting WAL mode: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("sqldb: setting busy timeout: %w", err)
	}
	return nil
}

// Dialect reports which backend the DB talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// PingContext checks that the database is still reachable.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the UserRepository backed by this DB.
func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

// Feedback returns the FeedbackRepository backed by this DB.
func (db *DB) Feedback() *FeedbackDB {
	return &FeedbackDB{db: db}
}

func (db *DB) rebind(query string) string {
	return rebind(db.dialect, query)
}
