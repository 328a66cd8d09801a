// Package file reads datasets from local directory roots: ListJSON
// enumerates the NDJSON files under a root and Local streams one of them.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local streams one dataset file from the local filesystem. The pipeline
// builds one Local per path returned by ListJSON.
type Local struct{ path string }

// NewLocal binds a source to path. The path is not checked until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open returns the file contents as a stream. A context that is already
// done short-circuits without touching the filesystem. Filesystem errors
// are wrapped with the path while keeping errors.Is(err, os.ErrNotExist)
// reachable for callers.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
