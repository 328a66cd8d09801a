// Package config defines the canonical, JSON-serializable configuration
// model for the pipeline. It is intentionally small, explicit, and
// dependency-free so that a run can be described by a file on disk and
// passed through the program without additional glue code.
//
// Core logic never reads credentials or paths from process environment;
// everything arrives through a decoded Pipeline value. Only the runtime
// knobs (worker counts) have environment fallbacks, resolved in the
// orchestration layer.
//
// Example (trimmed):
//
//	{
//	  "job": "music_dw",
//	  "sources": {
//	    "catalog": { "root": "data/song_data" },
//	    "events":  { "root": "data/log_data" }
//	  },
//	  "dedup":   { "artists": "full-tuple", "users": "full-tuple" },
//	  "storage": { "kind": "columnar", "root": "out/" },
//	  "runtime": { "partition_workers": 4 }
//	}
package config

import "encoding/json"

// Pipeline describes one full run: where the two raw datasets live, how
// the ambiguous dedup keys are resolved, and which sink persists the
// output.
type Pipeline struct {
	// Job names the run for metrics labeling and log prefixes.
	Job string `json:"job"`

	// Sources locates the two raw datasets.
	Sources Sources `json:"sources"`

	// Dedup selects the dedup key for the artists and users dimensions:
	// "full-tuple" (default, source behavior) or "identity".
	Dedup Dedup `json:"dedup"`

	// Storage selects and parameterizes the sink.
	Storage Storage `json:"storage"`

	// Runtime controls partition parallelism.
	Runtime Runtime `json:"runtime"`
}

// Sources locates the catalog and event datasets. Each root is walked
// recursively for *.json files of newline-delimited records.
type Sources struct {
	Catalog SourceRoot `json:"catalog"`
	Events  SourceRoot `json:"events"`
}

// SourceRoot holds configuration for one dataset root.
type SourceRoot struct {
	Root string `json:"root"`
}

// Dedup selects dedup key modes for the identity-ambiguous dimensions.
// See the normalize package for the semantics of each mode.
type Dedup struct {
	Artists string `json:"artists"`
	Users   string `json:"users"`
}

// Storage selects the sink used to persist the derived tables.
type Storage struct {
	// Kind selects the backend: "columnar", "postgres", or "sqlite".
	Kind string `json:"kind"`

	// Root is the destination directory for the columnar backend.
	Root string `json:"root"`

	// DSN is the connection string for relational backends.
	DSN string `json:"dsn"`

	// AutoCreateTable makes relational backends apply the star-schema DDL
	// before the first write.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Runtime controls concurrency. Zero values fall back to environment
// overrides and then defaults (12-factor style) in the orchestration
// layer.
type Runtime struct {
	// PartitionWorkers bounds how many source files are parsed and
	// normalized concurrently.
	PartitionWorkers int `json:"partition_workers"`
}

// Load decodes a Pipeline from JSON bytes.
func Load(b []byte) (Pipeline, error) {
	var p Pipeline
	err := json.Unmarshal(b, &p)
	return p, err
}
