package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"

	"stockroom/internal/core/domain"
	"stockroom/internal/port"
)

// SQLiteStore implements port.RecordStore on an embedded SQLite database.
// This is the default backend for single-process deployments.
type SQLiteStore struct {
	db *sql.DB
}

var _ port.RecordStore = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if necessary) the database at path and
// applies the schema. WAL mode keeps readers from blocking the writer.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup schema: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		thresholdKey, strconv.Itoa(domain.DefaultThreshold))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seed threshold: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, quantity, price, created_at, updated_at FROM items`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.Name, &it.Quantity, &it.Price, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*domain.Item, error) {
	var it domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT name, quantity, price, created_at, updated_at
		FROM items WHERE name = ?`, name,
	).Scan(&it.Name, &it.Quantity, &it.Price, &it.CreatedAt, &it.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &it, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, item domain.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, quantity, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Quantity, item.Price, item.CreatedAt, item.UpdatedAt,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return port.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, name string, quantity int, price float64, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET quantity = ?, price = ?, updated_at = ?
		WHERE name = ?`,
		quantity, price, updatedAt, name,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetThreshold(ctx context.Context) (int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, thresholdKey,
	).Scan(&raw)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultThreshold, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query threshold: %w", err)
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse threshold %q: %w", raw, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetThreshold(ctx context.Context, value int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		thresholdKey, strconv.Itoa(value),
	)
	if err != nil {
		return fmt.Errorf("set threshold: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
