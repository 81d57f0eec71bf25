package notify

import (
	"context"
	"database/sql"
	"errors"
)

// Archive keeps delivered notifications in Postgres.
type Archive struct {
	db *sql.DB
}

// NewArchive creates an archive on db.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// EnsureSchema creates the notifications table if it is missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY,
			kind       TEXT NOT NULL,
			message    TEXT NOT NULL,
			count      INTEGER NOT NULL DEFAULT 0,
			raised_at  TIMESTAMPTZ NOT NULL,
			stored_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Save stores note. Saving the same id twice is a no-op.
func (a *Archive) Save(ctx context.Context, note Notification) error {
	if note.ID == "" {
		return errors.New("notification id required")
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, message, count, raised_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, note.ID, string(note.Kind), note.Message, note.Count, note.At)
	return err
}

// Recent returns the latest notifications, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, kind, message, count, raised_at
		FROM notifications
		ORDER BY raised_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var kind string
		if err := rows.Scan(&n.ID, &kind, &n.Message, &n.Count, &n.At); err != nil {
			return nil, err
		}
		n.Kind = Kind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Notify archives note, so an Archive can sit in a Multi.
func (a *Archive) Notify(ctx context.Context, note Notification) error {
	return a.Save(ctx, note)
}
