package postgres

import (
	"context"
	"errors"
	"testing"

	"musicdw/internal/model"
)

func TestPgIdent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"songs", `"songs"`},
		{"time", `"time"`},
		{`bad"name`, `"bad""name"`},
	}
	for _, c := range cases {
		if got := pgIdent(c.in); got != c.want {
			t.Fatalf("pgIdent(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestMapIdent(t *testing.T) {
	t.Parallel()

	got := mapIdent([]string{"user_id", "level"})
	if len(got) != 2 || got[0] != `"user_id"` || got[1] != `"level"` {
		t.Fatalf("mapIdent = %v", got)
	}
}

// The reserved table name "time" must come out quoted, and values must
// bind through placeholders only.
func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL("time", model.TimeColumns)
	want := `INSERT INTO "time" ("start_time","hour","day","week","month","year","weekday") VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if got != want {
		t.Fatalf("insertSQL:\n got %s\nwant %s", got, want)
	}
}

// An empty table is a no-op that never touches the pool, so a zero Writer
// is safe here.
func TestWriteTableEmpty(t *testing.T) {
	t.Parallel()

	w := &Writer{}
	err := w.WriteTable(context.Background(), model.Table{
		Name:    "songs",
		Columns: model.SongColumns,
	})
	if err != nil {
		t.Fatalf("WriteTable(empty): %v", err)
	}
	if err := w.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestStorageWriteErrorWrapping(t *testing.T) {
	t.Parallel()

	base := errors.New("connection refused")
	err := error(&model.StorageWriteError{Table: "songplays", Err: base})

	var swe *model.StorageWriteError
	if !errors.As(err, &swe) || swe.Table != "songplays" {
		t.Fatalf("errors.As failed for %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("errors.Is did not reach the wrapped cause: %v", err)
	}
}
