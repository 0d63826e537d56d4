package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matsen/tablebot/internal/table"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per (scope, name) with the columns and rows
// JSON-encoded.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS tables (
			scope TEXT NOT NULL,
			name TEXT NOT NULL,
			columns_json TEXT NOT NULL,
			rows_json TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (scope, name)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Read implements table.Store.
func (s *SQLiteStore) Read(ctx context.Context, scope, name string) (table.Table, bool, error) {
	var columnsJSON, rowsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT columns_json, rows_json FROM tables WHERE scope = ? AND name = ?`,
		scope, name).Scan(&columnsJSON, &rowsJSON)
	if err == sql.ErrNoRows {
		return table.Table{}, false, nil
	}
	if err != nil {
		return table.Table{}, false, fmt.Errorf("querying table: %w", err)
	}

	var t table.Table
	if err := json.Unmarshal([]byte(columnsJSON), &t.Columns); err != nil {
		return table.Table{}, false, fmt.Errorf("parsing columns: %w", err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &t.Rows); err != nil {
		return table.Table{}, false, fmt.Errorf("parsing rows: %w", err)
	}
	t.Normalize()
	return t, true, nil
}

// Write implements table.Store.
func (s *SQLiteStore) Write(ctx context.Context, scope, name string, t table.Table) error {
	t.Normalize()
	columnsJSON, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	rowsJSON, err := json.Marshal(t.Rows)
	if err != nil {
		return fmt.Errorf("encoding rows: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tables (scope, name, columns_json, rows_json, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		scope, name, string(columnsJSON), string(rowsJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}

// Delete implements table.Store.
func (s *SQLiteStore) Delete(ctx context.Context, scope, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE scope = ? AND name = ?`, scope, name); err != nil {
		return fmt.Errorf("deleting table: %w", err)
	}
	return nil
}

// ListNames implements table.Store.
func (s *SQLiteStore) ListNames(ctx context.Context, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tables WHERE scope = ? ORDER BY name`, scope)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
