package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/carelink-health/assesscore/internal/model"
)

// Journal persists published events to SQLite for audit and replay.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database at dsn and configures
// WAL mode.
func NewJournal(dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "journal: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "journal: exec %s", pragma)
		}
	}
	return &Journal{db: db}, nil
}

const journalMigration = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
`

func (j *Journal) Migrate(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, journalMigration)
	return eris.Wrap(err, "journal: migrate")
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append writes one event. Duplicate IDs are ignored so at-least-once
// delivery from the bus stays idempotent.
func (j *Journal) Append(ctx context.Context, evt model.Event) error {
	payloadJSON, err := json.Marshal(evt.Payload)
	if err != nil {
		return eris.Wrap(err, "journal: marshal payload")
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, type, payload, created_at) VALUES (?, ?, ?, ?)`,
		evt.ID.String(), evt.Type, string(payloadJSON), evt.Timestamp.UTC(),
	)
	return eris.Wrapf(err, "journal: append %s", evt.Type)
}

// EventFilter narrows Recent queries.
type EventFilter struct {
	Type  string
	Since time.Time
	Limit int
}

// Recent returns journaled events newest first.
func (j *Journal) Recent(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, type, payload, created_at FROM events WHERE 1=1`
	var args []any

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "journal: query recent")
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, eris.Wrap(rows.Err(), "journal: iterate recent")
}

// Run consumes events from the channel and appends each until the channel
// closes or ctx is cancelled. Intended to be attached to a Bus subscription
// in its own goroutine.
func (j *Journal) Run(ctx context.Context, ch <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := j.Append(ctx, evt); err != nil {
				zap.L().Warn("journal append failed",
					zap.String("type", evt.Type),
					zap.Error(err))
			}
		}
	}
}

func scanEvent(rows *sql.Rows) (model.Event, error) {
	var evt model.Event
	var id, payloadJSON string

	if err := rows.Scan(&id, &evt.Type, &payloadJSON, &evt.Timestamp); err != nil {
		return model.Event{}, eris.Wrap(err, "journal: scan event")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.Event{}, eris.Wrap(err, "journal: parse event id")
	}
	evt.ID = parsed
	if err := json.Unmarshal([]byte(payloadJSON), &evt.Payload); err != nil {
		return model.Event{}, eris.Wrap(err, "journal: unmarshal payload")
	}
	return evt, nil
}
