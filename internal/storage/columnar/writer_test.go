package columnar

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"musicdw/internal/model"
)

func songsTable() model.Table {
	return model.Table{
		Name:          "songs",
		Columns:       []string{"song_id", "title", "artist_id", "year", "duration"},
		PartitionKeys: []string{"year", "artist_id"},
		Rows: [][]any{
			{"id1", "Song A", "AR1", int64(2000), 180.5},
			{"id2", "Song B", "AR1", int64(2000), 99.0},
			{"id3", "Song C", "AR2", int64(2001), 42.0},
		},
	}
}

func writeAndCommit(t *testing.T, root string, tables ...model.Table) {
	t.Helper()
	w, err := NewWriter(root)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	ctx := context.Background()
	for _, tbl := range tables {
		if err := w.WriteTable(ctx, tbl); err != nil {
			t.Fatalf("WriteTable(%s): %v", tbl.Name, err)
		}
	}
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func readPart(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriterPartitionLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAndCommit(t, root, songsTable())

	// Partition key values become path segments in key order.
	part := filepath.Join(root, "songs", "year=2000", "artist_id=AR1", "part-00000.csv")
	rows := readPart(t, part)

	// Partition columns are dropped from the part file.
	wantHeader := []string{"song_id", "title", "duration"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Fatalf("header = %v, want %v", rows[0], wantHeader)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(rows))
	}
	if rows[1][0] != "id1" || rows[2][0] != "id2" {
		t.Fatalf("row order not preserved: %v", rows[1:])
	}

	other := filepath.Join(root, "songs", "year=2001", "artist_id=AR2", "part-00000.csv")
	if got := readPart(t, other); len(got) != 2 {
		t.Fatalf("second partition has %d lines, want 2", len(got))
	}
}

func TestWriterSuccessMarker(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAndCommit(t, root, songsTable())

	b, err := os.ReadFile(filepath.Join(root, "_SUCCESS"))
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	var marker struct {
		RunID       string         `json:"run_id"`
		CompletedAt time.Time      `json:"completed_at"`
		Tables      map[string]int `json:"tables"`
	}
	if err := json.Unmarshal(b, &marker); err != nil {
		t.Fatalf("unmarshal marker: %v", err)
	}
	if marker.RunID == "" || marker.CompletedAt.IsZero() {
		t.Fatalf("marker incomplete: %+v", marker)
	}
	if marker.Tables["songs"] != 3 {
		t.Fatalf("marker rows = %d, want 3", marker.Tables["songs"])
	}
}

// Overwrite semantics: a rerun replaces the table wholesale, removing
// partitions the new run no longer produces.
func TestWriterRerunOverwrites(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAndCommit(t, root, songsTable())

	smaller := songsTable()
	smaller.Rows = smaller.Rows[:1]
	writeAndCommit(t, root, smaller)

	if _, err := os.Stat(filepath.Join(root, "songs", "year=2001")); !os.IsNotExist(err) {
		t.Fatalf("stale partition survived rerun: %v", err)
	}
	rows := readPart(t, filepath.Join(root, "songs", "year=2000", "artist_id=AR1", "part-00000.csv"))
	if len(rows) != 2 {
		t.Fatalf("got %d lines after rerun, want 2", len(rows))
	}
}

// Identical input must produce an identical row set per table.
func TestWriterRerunIdempotent(t *testing.T) {
	t.Parallel()

	collect := func(root string) []string {
		var all []string
		err := filepath.WalkDir(filepath.Join(root, "songs"), func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			for _, row := range readPart(t, path)[1:] {
				all = append(all, filepath.Dir(path)[len(root):]+":"+row[0])
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk: %v", err)
		}
		sort.Strings(all)
		return all
	}

	root1, root2 := t.TempDir(), t.TempDir()
	writeAndCommit(t, root1, songsTable())
	writeAndCommit(t, root2, songsTable())
	if !reflect.DeepEqual(collect(root1), collect(root2)) {
		t.Fatalf("reruns disagree:\n%v\nvs\n%v", collect(root1), collect(root2))
	}
}

// An uncommitted run leaves no staging behind and never touches committed
// tables.
func TestWriterCloseWithoutCommit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAndCommit(t, root, songsTable())

	w, err := NewWriter(root)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	broken := songsTable()
	broken.Rows = broken.Rows[:1]
	if err := w.WriteTable(context.Background(), broken); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "songs" && e.Name() != "_SUCCESS" {
			t.Fatalf("leftover entry %q after abandoned run", e.Name())
		}
	}
	rows := readPart(t, filepath.Join(root, "songs", "year=2000", "artist_id=AR1", "part-00000.csv"))
	if len(rows) != 3 {
		t.Fatalf("committed table modified by abandoned run: %d lines", len(rows))
	}
}

func TestWriterRowWidthMismatch(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	bad := model.Table{
		Name:    "songs",
		Columns: []string{"a", "b"},
		Rows:    [][]any{{"only one"}},
	}
	err = w.WriteTable(context.Background(), bad)
	var se *model.StorageWriteError
	if !errors.As(err, &se) || se.Table != "songs" {
		t.Fatalf("err = %v, want StorageWriteError for songs", err)
	}
}
