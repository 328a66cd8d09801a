package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline. Path is a
// dotted path into the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where one is expected.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use the default job name",
		})
	}

	if strings.TrimSpace(p.Sources.Catalog.Root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.catalog.root",
			Message:  "catalog source requires a non-empty root",
		})
	}
	if strings.TrimSpace(p.Sources.Events.Root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.events.root",
			Message:  "events source requires a non-empty root",
		})
	}

	issues = append(issues, validateDedup(p.Dedup)...)
	issues = append(issues, validateStorage(p.Storage)...)

	if p.Runtime.PartitionWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.partition_workers",
			Message:  "partition_workers must be >= 0",
		})
	}

	return issues
}

func validateDedup(d Dedup) []Issue {
	var issues []Issue
	for _, f := range []struct{ path, mode string }{
		{"dedup.artists", d.Artists},
		{"dedup.users", d.Users},
	} {
		switch f.mode {
		case "", "full-tuple", "identity":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  fmt.Sprintf("unknown dedup mode %q (want full-tuple or identity)", f.mode),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	case "columnar":
		if strings.TrimSpace(s.Root) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.root",
				Message:  "columnar storage requires a non-empty root",
			})
		}
	case "postgres", "sqlite":
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.dsn",
				Message:  fmt.Sprintf("%s storage requires a non-empty dsn", s.Kind),
			})
		}
	default:
		// Unknown kinds are warnings for forward compatibility; the
		// factory rejects them at open time if nothing registered.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	return issues
}
