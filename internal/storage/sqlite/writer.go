// Package sqlite implements the incremental append sink on SQLite via
// database/sql. SQLite has no bulk-load API; batched INSERTs inside one
// transaction per table keep performance acceptable for moderate volumes.
//
// Idempotency matches the postgres backend: none across reruns unless the
// operator adds uniqueness constraints.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"musicdw/internal/model"
	"musicdw/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return NewWriter(ctx, cfg)
	})
}

// Writer is a SQLite-backed implementation of storage.Writer.
type Writer struct {
	db *sql.DB
}

// NewWriter opens a SQLite connection using cfg.DSN, e.g.:
//
//	"file:musicdw.db?cache=shared"
//	"musicdw.db"
func NewWriter(ctx context.Context, cfg storage.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	w := &Writer{db: db}
	if cfg.AutoCreateTable {
		if err := w.ensureTables(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return w, nil
}

// WriteTable inserts all rows of t using a prepared statement inside one
// transaction, rolled back on the first failure.
func (w *Writer) WriteTable(ctx context.Context, t model.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(t.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name),
		strings.Join(quoteIdents(t.Columns), ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.StorageWriteError{Table: t.Name, Err: fmt.Errorf("begin tx: %w", err)}
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return &model.StorageWriteError{Table: t.Name, Err: fmt.Errorf("prepare insert: %w", err)}
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			_ = tx.Rollback()
			return &model.StorageWriteError{
				Table: t.Name,
				Err:   fmt.Errorf("row %d has %d values, want %d", i+1, len(row), len(t.Columns)),
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return &model.StorageWriteError{Table: t.Name, Err: fmt.Errorf("insert row %d: %w", i+1, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &model.StorageWriteError{Table: t.Name, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// Commit is a no-op: every WriteTable already committed its transaction.
func (w *Writer) Commit(ctx context.Context) error { return nil }

// Close closes the database handle.
func (w *Writer) Close() error { return w.db.Close() }

// ensureTables applies the shared dimension DDL plus the SQLite-specific
// songplays table (rowid-backed surrogate key).
func (w *Writer) ensureTables(ctx context.Context) error {
	stmts := append([]string{}, storage.DimensionDDL...)
	stmts = append(stmts, `CREATE TABLE IF NOT EXISTS songplays (
		songplay_id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_time  TIMESTAMP NOT NULL,
		user_id     TEXT,
		level       TEXT,
		song_id     TEXT,
		artist_id   TEXT,
		session_id  INTEGER,
		location    TEXT,
		user_agent  TEXT,
		year        INT,
		month       INT
	)`)
	for _, s := range stmts {
		if _, err := w.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqlite: apply DDL: %w", err)
		}
	}
	return nil
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func quoteIdents(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}
