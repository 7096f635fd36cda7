package waitlist

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultDSN keeps the waitlist in a private in-memory database.
const DefaultDSN = ":memory:"

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dsn and prepares the schema.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS waitlist (
		email TEXT PRIMARY KEY,
		joined_at INTEGER NOT NULL
	);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Add(ctx context.Context, entry Entry) error {
	query := `INSERT INTO waitlist (email, joined_at) VALUES (?, ?)
		ON CONFLICT(email) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, entry.Email, entry.JoinedAt.Unix()); err != nil {
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, email string) (bool, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM waitlist WHERE email = ?`, email)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("lookup waitlist entry: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM waitlist`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM waitlist`); err != nil {
		return fmt.Errorf("reset waitlist: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
