// Package ndjson implements a newline-delimited JSON parser that turns
// JSON objects into records.Record maps, plus typed extraction into the
// catalog and event entry types.
//
// It is deliberately simple and conservative:
//
//   - One self-describing JSON object per line, the encoding used by both
//     source datasets.
//   - Line-scoped decoding: a malformed line yields a *ParseError for that
//     line only and never corrupts neighboring records.
//   - json.Decoder.UseNumber per line, so numeric fields keep their
//     literal form until typed extraction decides int64 vs float64.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"musicdw/pkg/records"
)

// ParseError reports one undecodable line. Callers skip or abort per their
// policy; the Decoder itself stays usable either way.
type ParseError struct {
	Line int // 1-based
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ndjson: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decoder reads an NDJSON stream record by record.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder constructs a Decoder from an io.Reader.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	// Some raw event lines carry long userAgent strings; allow up to 1 MiB.
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Decoder{sc: sc}
}

// Next returns the next record and its 1-based line number. Blank lines
// are skipped. io.EOF signals the end of the stream; a *ParseError marks
// one bad line and leaves the Decoder positioned at the next.
func (d *Decoder) Next() (records.Record, int, error) {
	for d.sc.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, d.line, &ParseError{Line: d.line, Err: err}
		}
		return records.Record(m), d.line, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, d.line, fmt.Errorf("ndjson: read: %w", err)
	}
	return nil, d.line, io.EOF
}

// DecodeAll reads every record from r, stopping at the first error of any
// kind. It is the convenience path for small inputs and tests; callers
// needing per-line isolation should drive Next themselves.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := NewDecoder(r)
	var out []records.Record
	for {
		rec, _, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, rec)
	}
}
