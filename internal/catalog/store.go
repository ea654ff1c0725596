// Package catalog persists the venue catalog the interpreter matches against.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/interpreter"
)

const schema = `
CREATE TABLE IF NOT EXISTS venues (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL DEFAULT ''
);
`

type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the SQLite catalog at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenOn attaches the catalog schema to an already-open database so the
// catalog and draft stores can share one file.
func OpenOn(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// List returns all venues in stable name order; this order is what the
// resolver preserves for ambiguous candidate lists.
func (s *Store) List(ctx context.Context) ([]interpreter.VenueCatalogEntry, error) {
	var out []interpreter.VenueCatalogEntry
	err := s.db.SelectContext(ctx, &out, `SELECT id, name, slug FROM venues ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces one venue.
func (s *Store) Upsert(ctx context.Context, v interpreter.VenueCatalogEntry) error {
	if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("venue id and name are required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO venues (id, name, slug) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, slug = excluded.slug`,
		v.ID, v.Name, v.Slug)
	if err != nil {
		return fmt.Errorf("upsert venue %s: %w", v.ID, err)
	}
	return nil
}

// Delete removes one venue; deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete venue %s: %w", id, err)
	}
	return nil
}
