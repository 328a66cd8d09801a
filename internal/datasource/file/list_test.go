package file

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestListJSON(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "2018", "11", "b.json"))
	touch(t, filepath.Join(root, "2018", "11", "a.json"))
	touch(t, filepath.Join(root, "2018", "12", "c.JSON"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "_SUCCESS"))
	touch(t, filepath.Join(root, "_staging", "d.json"))
	touch(t, filepath.Join(root, ".hidden.json"))

	got, err := ListJSON(root)
	if err != nil {
		t.Fatalf("ListJSON: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d files, want 3: %v", len(got), got)
	}
	for i, p := range got {
		if !filepath.IsAbs(p) {
			t.Fatalf("path %q not absolute", p)
		}
		if i > 0 && got[i-1] > p {
			t.Fatalf("paths not sorted: %v", got)
		}
	}
	// Marker and hidden files never re-enter a pipeline; extension match is
	// case-insensitive.
	if filepath.Base(got[0]) != "a.json" || filepath.Base(got[1]) != "b.json" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestListJSONMissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := ListJSON(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("want error for missing root")
	}
}
