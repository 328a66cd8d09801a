// Package postgres implements the incremental append sink on Postgres
// using pgx v5. Each WriteTable call inserts its rows with parameterized
// statements inside one transaction, rolled back on error.
//
// Idempotency: NONE across reruns. Rerunning the pipeline against the same
// input appends the same rows again unless the operator adds uniqueness
// constraints in the database. This is the documented contract of the
// append policy, not a defect.
package postgres

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"musicdw/internal/model"
	"musicdw/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return NewWriter(ctx, cfg)
	})
}

// Writer is a Postgres-backed implementation of storage.Writer.
type Writer struct {
	pool *pgxpool.Pool
}

// NewWriter opens a pgx pool from cfg.DSN and optionally applies the
// star-schema DDL.
func NewWriter(ctx context.Context, cfg storage.Config) (*Writer, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	w := &Writer{pool: pool}
	if cfg.AutoCreateTable {
		if err := w.ensureTables(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return w, nil
}

// WriteTable inserts all rows of t in one transaction. The insert SQL is
// built from quoted identifiers with $n placeholders only; values never
// enter the SQL text.
func (w *Writer) WriteTable(ctx context.Context, t model.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}

	insert := insertSQL(t.Name, t.Columns)

	tx, err := w.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &model.StorageWriteError{Table: t.Name, Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, row := range t.Rows {
		if _, err := tx.Exec(ctx, insert, row...); err != nil {
			return &model.StorageWriteError{
				Table: t.Name,
				Err:   fmt.Errorf("insert row %d: %w", i+1, err),
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &model.StorageWriteError{Table: t.Name, Err: fmt.Errorf("commit: %w", err)}
	}

	log.Printf("postgres: inserted table=%s rows=%d", t.Name, len(t.Rows))
	return nil
}

// Commit is a no-op: every WriteTable already committed its transaction.
func (w *Writer) Commit(ctx context.Context) error { return nil }

// Close releases the pool.
func (w *Writer) Close() error {
	w.pool.Close()
	return nil
}

// ensureTables applies the shared dimension DDL plus the Postgres-specific
// songplays table with its serial surrogate key.
func (w *Writer) ensureTables(ctx context.Context) error {
	stmts := append([]string{}, storage.DimensionDDL...)
	stmts = append(stmts, `CREATE TABLE IF NOT EXISTS songplays (
		songplay_id BIGSERIAL PRIMARY KEY,
		start_time  TIMESTAMP NOT NULL,
		user_id     TEXT,
		level       TEXT,
		song_id     TEXT,
		artist_id   TEXT,
		session_id  BIGINT,
		location    TEXT,
		user_agent  TEXT,
		year        INT,
		month       INT
	)`)
	for _, s := range stmts {
		if _, err := w.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
	}
	return nil
}

// insertSQL builds the parameterized INSERT for one table. Identifiers
// are quoted and values bind through $n placeholders only; row values
// never enter the SQL text.
func insertSQL(name string, cols []string) string {
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgIdent(name),
		strings.Join(mapIdent(cols), ","),
		strings.Join(placeholders, ","),
	)
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
