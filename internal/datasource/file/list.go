package file

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ListJSON walks root recursively and returns the absolute paths of all
// *.json files, sorted lexically for a deterministic processing order.
//
// Hidden and marker entries (leading '_' or '.') are skipped, directories
// included, so that a previous run's _SUCCESS markers or staging dirs never
// re-enter a pipeline.
func ListJSON(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			out = append(out, abs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
