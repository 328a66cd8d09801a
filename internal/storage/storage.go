// Package storage contains the storage-agnostic sink contract and the
// backend factory.
//
// Two interchangeable sink policies sit behind one interface:
//
//   - bulk overwrite ("columnar"): each run fully replaces the named
//     tables. Idempotent at the table level; a run-level commit marker
//     closes the cross-table consistency gap.
//   - incremental append ("postgres", "sqlite"): each derived row is
//     inserted into a transactional store, one transaction per table
//     write. NOT idempotent: rerunning the pipeline without uniqueness
//     constraints in the store produces duplicate rows.
//
// Backends register constructors at init time (see storage/all), so the
// orchestration layer never imports database drivers directly.
package storage

import (
	"context"
	"fmt"
	"sync"

	"musicdw/internal/model"
)

// Writer is the sink strategy contract.
type Writer interface {
	// WriteTable persists one derived table. Append backends insert all
	// rows inside a single transaction and roll back on error; the
	// overwrite backend stages the table for the next Commit.
	WriteTable(ctx context.Context, t model.Table) error

	// Commit finalizes the run. The overwrite backend swaps every staged
	// table into place and writes the run marker; append backends have
	// already committed per table and treat this as a no-op.
	Commit(ctx context.Context) error

	// Close releases connections and discards any uncommitted staging.
	Close() error
}

// Config selects and parameterizes a backend. Credentials and paths come
// from the external configuration object; core logic never reads process
// environment for them.
type Config struct {
	Kind string // "columnar", "postgres", "sqlite"

	// DSN is the connection string for relational backends.
	DSN string

	// Root is the destination directory for the columnar backend.
	Root string

	// AutoCreateTable makes relational backends apply the star-schema DDL
	// before the first write.
	AutoCreateTable bool
}

// Factory constructs a Writer for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Writer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = fn
}

// New resolves cfg.Kind against the registered factories and opens the
// backend.
func New(ctx context.Context, cfg Config) (Writer, error) {
	mu.RLock()
	fn, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// Kinds returns the registered backend kinds, for config validation
// messages.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}
