package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"stockroom/internal/core/domain"
	"stockroom/internal/port"
)

const mysqlDuplicateEntry = 1062

const thresholdKey = "low_stock_threshold"

// MySQLStore implements port.RecordStore on a MySQL database.
type MySQLStore struct {
	db *sql.DB
}

var _ port.RecordStore = (*MySQLStore)(nil)

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Migrate creates the schema if absent and seeds the default threshold.
func (m *MySQLStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			name VARCHAR(255) PRIMARY KEY,
			quantity INT NOT NULL,
			price DOUBLE NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			` + "`key`" + ` VARCHAR(64) PRIMARY KEY,
			value VARCHAR(255) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	_, err := m.db.ExecContext(ctx,
		"INSERT IGNORE INTO settings (`key`, value) VALUES (?, ?)",
		thresholdKey, strconv.Itoa(domain.DefaultThreshold),
	)
	if err != nil {
		return fmt.Errorf("seed threshold: %w", err)
	}
	return nil
}

func (m *MySQLStore) ListAll(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
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

func (m *MySQLStore) Get(ctx context.Context, name string) (*domain.Item, error) {
	var it domain.Item
	err := m.db.QueryRowContext(ctx, `
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

func (m *MySQLStore) Insert(ctx context.Context, item domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (name, quantity, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Quantity, item.Price, item.CreatedAt, item.UpdatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return port.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLStore) Update(ctx context.Context, name string, quantity int, price float64, updatedAt time.Time) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE items SET quantity = ?, price = ?, updated_at = ?
		WHERE name = ?`,
		quantity, price, updatedAt, name,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// MySQL reports zero affected rows for a no-op update, so a
		// missing row has to be distinguished from an identical write.
		var one int
		err := m.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE name = ?`, name).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("verify item: %w", err)
		}
	}
	return nil
}

func (m *MySQLStore) Delete(ctx context.Context, name string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM items WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (m *MySQLStore) GetThreshold(ctx context.Context) (int, error) {
	var raw string
	err := m.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE `key` = ?", thresholdKey,
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

func (m *MySQLStore) SetThreshold(ctx context.Context, value int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO settings (`+"`key`"+`, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		thresholdKey, strconv.Itoa(value),
	)
	if err != nil {
		return fmt.Errorf("set threshold: %w", err)
	}
	return nil
}

func (m *MySQLStore) Close() error { return m.db.Close() }
