// Package columnar implements the bulk-overwrite sink: each table is
// written as a directory of CSV part files, partitioned by the table's
// partition keys in hive layout (key=value path segments).
//
// Writes are staged under a hidden run directory and swapped into place
// only at Commit, which also writes a _SUCCESS marker carrying the run id
// and per-table row counts. A rerun over identical input produces an
// identical row set per table; a crashed run leaves the previous committed
// tables untouched.
package columnar

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"musicdw/internal/model"
	"musicdw/internal/storage"
)

func init() {
	storage.Register("columnar", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return NewWriter(cfg.Root)
	})
}

// Writer stages partitioned CSV tables under root/.staging-<runid> and
// swaps them into root on Commit.
type Writer struct {
	root      string
	runID     string
	staging   string
	rowCounts map[string]int
	committed bool
}

// NewWriter creates the staging directory for a new run under root.
func NewWriter(root string) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("columnar: output root required")
	}
	runID := uuid.NewString()
	staging := filepath.Join(root, ".staging-"+runID)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("columnar: create staging: %w", err)
	}
	return &Writer{
		root:      root,
		runID:     runID,
		staging:   staging,
		rowCounts: map[string]int{},
	}, nil
}

// WriteTable stages one table. Partition key values become key=value path
// segments and are dropped from the part files, so the data columns are
// Columns minus PartitionKeys.
func (w *Writer) WriteTable(ctx context.Context, t model.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataIdx, partIdx, err := splitColumns(t)
	if err != nil {
		return &model.StorageWriteError{Table: t.Name, Err: err}
	}

	// Group rows by partition path, preserving input order within each
	// partition.
	partitions := map[string][][]any{}
	order := []string{}
	for _, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return &model.StorageWriteError{
				Table: t.Name,
				Err:   fmt.Errorf("row has %d values, want %d", len(row), len(t.Columns)),
			}
		}
		dir := partitionPath(t, partIdx, row)
		if _, seen := partitions[dir]; !seen {
			order = append(order, dir)
		}
		partitions[dir] = append(partitions[dir], row)
	}

	tableDir := filepath.Join(w.staging, t.Name)
	if len(t.Rows) == 0 {
		// Still materialize the empty table directory so overwrite
		// replaces any stale rows from a previous run.
		if err := os.MkdirAll(tableDir, 0o755); err != nil {
			return &model.StorageWriteError{Table: t.Name, Err: err}
		}
	}

	header := make([]string, 0, len(dataIdx))
	for _, i := range dataIdx {
		header = append(header, t.Columns[i])
	}

	for _, dir := range order {
		if err := w.writePart(filepath.Join(tableDir, dir), header, dataIdx, partitions[dir]); err != nil {
			return &model.StorageWriteError{Table: t.Name, Err: err}
		}
	}

	w.rowCounts[t.Name] = len(t.Rows)
	log.Printf("columnar: staged table=%s rows=%d partitions=%d", t.Name, len(t.Rows), len(order))
	return nil
}

// Commit swaps every staged table into root and writes the _SUCCESS
// marker. The swap is per table (remove old, rename staged); the marker is
// written only after every table swapped, so a reader checking _SUCCESS
// never observes a mixed snapshot as committed.
func (w *Writer) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for name := range w.rowCounts {
		dst := filepath.Join(w.root, name)
		if err := os.RemoveAll(dst); err != nil {
			return &model.StorageWriteError{Table: name, Err: err}
		}
		if err := os.Rename(filepath.Join(w.staging, name), dst); err != nil {
			return &model.StorageWriteError{Table: name, Err: err}
		}
	}

	marker := struct {
		RunID       string         `json:"run_id"`
		CompletedAt time.Time      `json:"completed_at"`
		Tables      map[string]int `json:"tables"`
	}{w.runID, time.Now().UTC(), w.rowCounts}

	b, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("columnar: marker: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.root, "_SUCCESS"), b, 0o644); err != nil {
		return fmt.Errorf("columnar: marker: %w", err)
	}

	w.committed = true
	return os.RemoveAll(w.staging)
}

// Close discards the staging directory when the run never committed.
func (w *Writer) Close() error {
	if w.committed {
		return nil
	}
	return os.RemoveAll(w.staging)
}

// writePart writes one partition's rows as a single part file with header.
func (w *Writer) writePart(dir string, header []string, dataIdx []int, rows [][]any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "part-00000.csv"))
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return err
	}
	rec := make([]string, len(dataIdx))
	for _, row := range rows {
		for j, i := range dataIdx {
			rec[j] = formatValue(row[i])
		}
		if err := cw.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// splitColumns returns the indexes of data columns and partition columns.
func splitColumns(t model.Table) (data, part []int, err error) {
	partPos := map[string]int{}
	for _, k := range t.PartitionKeys {
		partPos[k] = -1
	}
	for i, c := range t.Columns {
		if _, ok := partPos[c]; ok {
			partPos[c] = i
		} else {
			data = append(data, i)
		}
	}
	for _, k := range t.PartitionKeys {
		i := partPos[k]
		if i < 0 {
			return nil, nil, fmt.Errorf("partition key %q not in columns", k)
		}
		part = append(part, i)
	}
	return data, part, nil
}

// partitionPath renders key=value path segments in partition-key order.
func partitionPath(t model.Table, partIdx []int, row []any) string {
	if len(partIdx) == 0 {
		return "."
	}
	segs := make([]string, len(partIdx))
	for j, i := range partIdx {
		segs[j] = t.PartitionKeys[j] + "=" + formatValue(row[i])
	}
	return filepath.Join(segs...)
}

// formatValue renders a cell for CSV output. nil becomes the empty string;
// timestamps use RFC3339 so reruns are byte-stable.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
