package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects SQL placeholder and type syntax.
type Dialect string

const (
	DialectPostgres Dialect = "postgres" // driver "pgx"
	DialectSQLite   Dialect = "sqlite"   // driver "sqlite" (modernc.org/sqlite)
)

// SQLWriter appends security events to a relational table synchronously.
type SQLWriter struct {
	db      *sql.DB
	dialect Dialect
	insert  string
}

// NewSQLWriter wraps an open database handle. Call EnsureSchema before the
// first Write unless the table is managed elsewhere.
func NewSQLWriter(db *sql.DB, dialect Dialect) *SQLWriter {
	insert := `INSERT INTO security_events (id, request_id, timestamp, endpoint, input_text, output_text, decision)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if dialect == DialectSQLite {
		insert = `INSERT INTO security_events (id, request_id, timestamp, endpoint, input_text, output_text, decision)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	}
	return &SQLWriter{db: db, dialect: dialect, insert: insert}
}

// EnsureSchema creates the events table if it does not exist.
func (w *SQLWriter) EnsureSchema(ctx context.Context) error {
	tsType := "TIMESTAMPTZ"
	if w.dialect == DialectSQLite {
		tsType = "TIMESTAMP"
	}
	_, err := w.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS security_events (
			id          TEXT PRIMARY KEY,
			request_id  TEXT NOT NULL,
			timestamp   %s NOT NULL,
			endpoint    TEXT NOT NULL,
			input_text  TEXT NOT NULL,
			output_text TEXT NOT NULL,
			decision    TEXT NOT NULL
		)`, tsType))
	if err != nil {
		return fmt.Errorf("SQLWriter.EnsureSchema: %w", err)
	}
	return nil
}

func (w *SQLWriter) Write(ctx context.Context, e *SecurityEvent) error {
	_, err := w.db.ExecContext(ctx, w.insert,
		e.ID, e.RequestID, e.Timestamp.UTC(), e.Endpoint, e.InputText, e.OutputText, e.Decision)
	if err != nil {
		return fmt.Errorf("SQLWriter.Write: %w", err)
	}
	return nil
}

// Close closes the underlying handle.
func (w *SQLWriter) Close() error {
	return w.db.Close()
}
