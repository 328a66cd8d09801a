// Package datasource abstracts where raw NDJSON bytes come from. The
// pipeline streams dataset files through this interface so local roots
// and remote probe samples share one open-and-read contract.
package datasource

import (
	"context"
	"io"
)

// Source yields one readable byte stream per Open call. Implementations
// live in the file and http subpackages.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
