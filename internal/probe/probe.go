// Package probe samples NDJSON dataset files and reports the fields they
// carry: original names, normalized SQL-safe names, and inferred SQL-like
// types. It is a schema-discovery aid for wiring new datasets into a
// pipeline config, not part of the pipeline itself.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"musicdw/internal/datasource"
	"musicdw/internal/datasource/file"
	httpsrc "musicdw/internal/datasource/http"
	"musicdw/internal/parser/ndjson"
	"musicdw/pkg/records"
)

// Options control sampling behavior.
type Options struct {
	// Path of the NDJSON file to sample. Local paths, file:// and
	// http(s):// URLs are accepted.
	Path string
	// MaxRecords caps how many records are decoded. <= 0 means 1000.
	MaxRecords int
	// AllowInsecureTLS skips TLS certificate verification for https
	// sampling (self-signed / internal endpoints).
	AllowInsecureTLS bool
}

// Field describes one discovered field across the sampled records.
type Field struct {
	// Name as it appears in the source records.
	Name string `json:"name"`
	// Normalized lowercase ASCII identifier safe for SQL schemas.
	Normalized string `json:"normalized"`
	// Type is the inferred SQL-like type: boolean, integer, real, or text.
	Type string `json:"type"`
	// Present counts records that carry the field with a non-null value.
	Present int `json:"present"`
}

// Report is the result of sampling one file.
type Report struct {
	Path    string  `json:"path"`
	Records int     `json:"records"`
	Fields  []Field `json:"fields"`
}

// Sample decodes up to MaxRecords records from the file and infers the
// field inventory. Malformed lines are skipped, matching the pipeline's
// per-record isolation.
func Sample(ctx context.Context, opt Options) (Report, error) {
	maxRecords := opt.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 1000
	}

	rc, err := openSource(ctx, opt)
	if err != nil {
		return Report{}, err
	}
	defer rc.Close()

	rep := Report{Path: opt.Path}
	seen := make(map[string]*fieldStats)

	dec := ndjson.NewDecoder(rc)
	for rep.Records < maxRecords {
		rec, _, err := dec.Next()
		if err == io.EOF {
			break
		}
		if _, ok := err.(*ndjson.ParseError); ok {
			continue
		}
		if err != nil {
			return Report{}, err
		}
		rep.Records++
		observe(seen, rec)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := seen[name]
		rep.Fields = append(rep.Fields, Field{
			Name:       name,
			Normalized: NormalizeFieldName(name),
			Type:       st.inferredType(),
			Present:    st.present,
		})
	}
	return rep, nil
}

// openSource picks a datasource for the path: HTTP(S) URLs go through the
// retrying remote source, everything else is a local file.
func openSource(ctx context.Context, opt Options) (io.ReadCloser, error) {
	var src datasource.Source
	switch {
	case strings.HasPrefix(opt.Path, "http://"), strings.HasPrefix(opt.Path, "https://"):
		src = httpsrc.NewRemote(opt.Path, httpsrc.Config{
			InsecureSkipVerify: opt.AllowInsecureTLS,
		})
	default:
		src = file.NewLocal(strings.TrimPrefix(opt.Path, "file://"))
	}
	return src.Open(ctx)
}

// fieldStats accumulates per-field type evidence across sampled records.
type fieldStats struct {
	present int
	bools   int
	ints    int
	floats  int
	strings int
	others  int
}

func observe(seen map[string]*fieldStats, rec records.Record) {
	for name, v := range rec {
		st := seen[name]
		if st == nil {
			st = &fieldStats{}
			seen[name] = st
		}
		if v == nil {
			continue
		}
		st.present++
		switch t := v.(type) {
		case bool:
			st.bools++
		case json.Number:
			if _, err := t.Int64(); err == nil {
				st.ints++
			} else {
				st.floats++
			}
		case string:
			st.strings++
		default:
			st.others++
		}
	}
}

// inferredType picks the narrowest SQL-like type all non-null values fit.
// Any mix falls back to text, except int+float which widens to real.
func (st *fieldStats) inferredType() string {
	switch {
	case st.present == 0:
		return "text"
	case st.bools == st.present:
		return "boolean"
	case st.ints == st.present:
		return "integer"
	case st.ints+st.floats == st.present:
		return "real"
	case st.strings == st.present:
		return "text"
	default:
		return "text"
	}
}

// NormalizeFieldName converts arbitrary field text into a lowercase ASCII
// identifier suitable for SQL schemas:
//  1. lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. fallback to "col" if empty
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose → remove nonspacing marks (accents) → recompose.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevUnderscore = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		default:
			// drop anything else
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

// RenderCSV renders the report as name,normalized,type,present lines.
func RenderCSV(rep Report) string {
	var b strings.Builder
	for _, f := range rep.Fields {
		fmt.Fprintf(&b, "%s,%s,%s,%d\n", f.Name, f.Normalized, f.Type, f.Present)
	}
	return b.String()
}
