// Package records defines the raw-record currency shared by parsers,
// transformers, and normalizers. A Record is a loosely typed field map as
// decoded from a single NDJSON line; typed extraction happens downstream.
package records

import "encoding/json"

// Record is one raw input record keyed by field name. Values are whatever
// encoding/json produced (string, json.Number, bool, nil, nested maps).
type Record map[string]any

// String returns the value for key as a string. json.Number values are
// rendered via their literal representation. Missing or nil fields return
// ("", false).
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// Int64 returns the value for key as an int64. Accepts json.Number and
// string representations of integers.
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			// Some sources encode integers as "123.0"; fall back to float.
			f, ferr := t.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case string:
		var n json.Number = json.Number(t)
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Float64 returns the value for key as a float64.
func (r Record) Float64(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := json.Number(t).Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// NullableFloat64 returns a *float64 for key, or nil when the field is
// absent, JSON null, or not numeric. Used for optional coordinates.
func (r Record) NullableFloat64(key string) *float64 {
	if f, ok := r.Float64(key); ok {
		return &f
	}
	return nil
}
