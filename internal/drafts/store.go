// Package drafts persists interpret-session snapshots and pipeline outputs.
// The pipeline itself never touches storage; only the route handler does.
package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	mode         TEXT NOT NULL DEFAULT 'create',
	locked_draft TEXT NOT NULL DEFAULT '{}',
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interpreted_drafts (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	next_action   TEXT NOT NULL,
	draft_payload TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`

var ErrNotFound = errors.New("drafts: not found")

type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open drafts db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply drafts schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenOn attaches the drafts schema to an already-open database.
func OpenOn(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply drafts schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// LockedDraft returns the stored prior-turn snapshot for a session, or nil
// when the session is new.
func (s *Store) LockedDraft(ctx context.Context, sessionID string) (map[string]any, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, `SELECT locked_draft FROM sessions WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		// A corrupt snapshot must not fail the turn; the merge stage simply
		// has nothing to restore.
		return nil, nil
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}

// SaveLockedDraft stores the confirmed-fields snapshot for the next turn.
func (s *Store) SaveLockedDraft(ctx context.Context, sessionID, mode string, payload map[string]any) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal locked draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, mode, locked_draft, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET mode = excluded.mode,
		   locked_draft = excluded.locked_draft, updated_at = excluded.updated_at`,
		sessionID, mode, string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// SaveResult records one pipeline output and returns its id.
func (s *Store) SaveResult(ctx context.Context, sessionID, nextAction string, draftPayload any) (string, error) {
	blob, err := json.Marshal(draftPayload)
	if err != nil {
		return "", fmt.Errorf("marshal draft payload: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interpreted_drafts (id, session_id, next_action, draft_payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, sessionID, nextAction, string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("save interpreted draft: %w", err)
	}
	return id, nil
}

// Result returns one stored pipeline output as raw JSON.
func (s *Store) Result(ctx context.Context, id string) (json.RawMessage, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, `SELECT draft_payload FROM interpreted_drafts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load interpreted draft %s: %w", id, err)
	}
	return json.RawMessage(blob), nil
}
