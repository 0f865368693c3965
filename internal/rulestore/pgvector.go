package rulestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// PGVectorStore implements Store on Postgres with the pgvector extension.
// Each collection is one table. Rebuild fills a staging table and swaps it
// in within a single transaction, so readers see either generation whole.
type PGVectorStore struct {
	db    *sql.DB
	table string
	next  string
	dims  int
}

// NewPGVectorStore uses db (opened with the "pgx" driver) for the named collection.
func NewPGVectorStore(db *sql.DB, collection string, dims int) *PGVectorStore {
	return &PGVectorStore{
		db:    db,
		table: pgx.Identifier{collection}.Sanitize(),
		next:  pgx.Identifier{collection + "_next"}.Sanitize(),
		dims:  dims,
	}
}

func (s *PGVectorStore) Rebuild(ctx context.Context, records []Record) error {
	if err := checkDimensions(records, s.dims); err != nil {
		return fmt.Errorf("PGVectorStore.Rebuild: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("PGVectorStore.Rebuild: extension: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("PGVectorStore.Rebuild: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DROP TABLE IF EXISTS ` + s.next,
		fmt.Sprintf(`CREATE TABLE %s (
			id           TEXT PRIMARY KEY,
			page_content TEXT NOT NULL,
			source       TEXT NOT NULL,
			embedding    vector(%d) NOT NULL
		)`, s.next, s.dims),
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("PGVectorStore.Rebuild: %w", err)
		}
	}

	ins, err := tx.PrepareContext(ctx,
		`INSERT INTO `+s.next+` (id, page_content, source, embedding) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("PGVectorStore.Rebuild: prepare: %w", err)
	}
	defer func() { _ = ins.Close() }()

	for _, r := range records {
		if _, err := ins.ExecContext(ctx, r.ID, r.Text, r.Source, pgvector.NewVector(r.Vector)); err != nil {
			return fmt.Errorf("PGVectorStore.Rebuild: insert %s: %w", r.ID, err)
		}
	}

	swap := []string{
		`CREATE INDEX ON ` + s.next + ` USING hnsw (embedding vector_cosine_ops)`,
		`DROP TABLE IF EXISTS ` + s.table,
		`ALTER TABLE ` + s.next + ` RENAME TO ` + s.table,
	}
	for _, q := range swap {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("PGVectorStore.Rebuild: swap: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("PGVectorStore.Rebuild: commit: %w", err)
	}
	return nil
}

func (s *PGVectorStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != s.dims {
		return nil, fmt.Errorf("PGVectorStore.Search: %w", ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_content, source, 1 - (embedding <=> $1) AS score
		FROM `+s.table+`
		ORDER BY embedding <=> $1, id
		LIMIT $2`, pgvector.NewVector(vector), k)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("PGVectorStore.Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []Match
	for rows.Next() {
		var m Match
		var score float64
		if err := rows.Scan(&m.ID, &m.Text, &m.Source, &score); err != nil {
			return nil, fmt.Errorf("PGVectorStore.Search: scan: %w", err)
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PGVectorStore.Search: %w", err)
	}
	sortMatches(matches)
	return matches, nil
}

func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+s.table).Scan(&n)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("PGVectorStore.Count: %w", err)
	}
	return n, nil
}

func (s *PGVectorStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the caller owns the *sql.DB.
func (s *PGVectorStore) Close() error { return nil }

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
