package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/clausekit/internal/models"
)

// SQLiteStore keeps the catalog in a SQLite table. Insertion order is the
// autoincrement sequence; the id column is UNIQUE.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes every transaction.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS templates (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		content TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_templates_category ON templates(category);
	`
	_, err := db.Exec(schema)
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listTemplates(ctx context.Context, q queryer) ([]models.Template, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, title, description, category, content FROM templates ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	catalog := []models.Template{}
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Content); err != nil {
			return nil, err
		}
		catalog = append(catalog, t)
	}
	return catalog, rows.Err()
}

// List returns all templates in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Template, error) {
	return listTemplates(ctx, s.db)
}

// Get returns a template by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, category, content FROM templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Add inserts t and returns the updated catalog.
func (s *SQLiteStore) Add(ctx context.Context, t models.Template) ([]models.Template, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates WHERE id = ?`, t.ID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO templates (id, title, description, category, content) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Category, t.Content,
	); err != nil {
		return nil, fmt.Errorf("failed to insert template: %w", err)
	}
	catalog, err := listTemplates(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Delete removes the template with id and returns the updated catalog.
func (s *SQLiteStore) Delete(ctx context.Context, id string) ([]models.Template, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	catalog, err := listTemplates(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
