// Package audit persists a trail of directory mutations. Authorization
// decisions themselves are pure; auditing happens at the boundary after
// a mutation succeeds.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	Actor    uuid.UUID
	Action   string
	EntityID string
	At       time.Time
}

// Logger writes records into audit_logs.
type Logger struct {
	pool *pgxpool.Pool
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// Record persists the entry.
func (l *Logger) Record(ctx context.Context, e Entry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if e.Action == "" || e.EntityID == "" {
		return errors.New("audit entry requires action and entity id")
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity_id, occurred_at) VALUES ($1, $2, $3, $4)`,
		e.Actor, e.Action, e.EntityID, at)
	return err
}

// Prune deletes entries older than the retention window and returns the
// number of rows removed.
func (l *Logger) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if l == nil {
		return 0, errors.New("audit logger not initialised")
	}
	cutoff := time.Now().UTC().Add(-retention)
	tag, err := l.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
