// Package transform contains reusable in-memory transformation steps.
//
// DeDup is the policy-driven de-duplication step used by every normalizer.
// It collapses duplicate values by a caller-supplied key and keeps one
// winner per key:
//
//   - "keep-first" : keep the earliest occurrence in the batch (default)
//   - "keep-last"  : keep the latest occurrence in the batch
//
// This runs in-memory on a single batch (slice). Keys are strings built by
// the caller, typically via KeyOf, which joins the key fields with the
// \x1f unit separator (nil -> "\x00") for stable semantics across types.
package transform

import (
	"fmt"
	"sort"
	"strings"
)

// DeDup implements a configurable, in-memory de-duplication policy over
// values of any type. Key extracts the dedup key; values whose Key returns
// ok=false fall outside the de-dup domain and pass through unchanged.
type DeDup[T any] struct {
	Key func(T) (string, bool)

	// Policy selects the winner among duplicates: "keep-first" (default)
	// or "keep-last".
	Policy string
}

// Apply executes the de-duplication and returns a new slice containing only
// the winning value for each key, ordered by the winner's position in the
// input. Pass-through values are appended in input order.
func (d DeDup[T]) Apply(in []T) []T {
	if len(in) == 0 || d.Key == nil {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		val   T
		index int
	}
	winners := make(map[string]slot, len(in))

	for i, v := range in {
		key, ok := d.Key(v)
		if !ok {
			continue
		}
		switch policy {
		case "keep-last":
			winners[key] = slot{val: v, index: i}
		default: // keep-first
			if _, exists := winners[key]; !exists {
				winners[key] = slot{val: v, index: i}
			}
		}
	}

	indexes := make([]int, 0, len(winners))
	byIndex := make(map[int]T, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
		byIndex[s.index] = s.val
	}
	sort.Ints(indexes)

	out := make([]T, 0, len(winners))
	for _, idx := range indexes {
		out = append(out, byIndex[idx])
	}
	for _, v := range in {
		if _, ok := d.Key(v); !ok {
			out = append(out, v)
		}
	}
	return out
}

// KeyOf builds a dedup key from the given field values. Fields are joined
// with the \x1f unit separator; nil becomes "\x00". Numeric values are
// rendered via fmt so that int64 and float64 representations stay stable.
func KeyOf(fields ...any) string {
	var b strings.Builder
	for i, v := range fields {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(t)
		default:
			b.WriteString(fmt.Sprint(t))
		}
	}
	return b.String()
}
