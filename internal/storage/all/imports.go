// Package all wires all built-in storage backends into the storage
// factory.
//
// This package exists purely for side effects: importing it (even as a
// blank import) runs the init functions of each concrete backend, which
// register their factories with the storage package. Importing it makes
// the following kinds available at runtime:
//
//   - "columnar" (musicdw/internal/storage/columnar)
//   - "postgres" (musicdw/internal/storage/postgres)
//   - "sqlite"   (musicdw/internal/storage/sqlite)
//
// A binary that should support only a subset of backends can blank-import
// the individual backend packages instead.
package all

import (
	_ "musicdw/internal/storage/columnar"
	_ "musicdw/internal/storage/postgres"
	_ "musicdw/internal/storage/sqlite"
)
