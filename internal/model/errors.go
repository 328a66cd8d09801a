package model

import "fmt"

// MalformedRecordError reports a raw record that failed required-field
// extraction. The caller decides the policy (skip the record, skip the
// file, or abort); the error itself only carries context.
type MalformedRecordError struct {
	Dataset string // "catalog" or "events"
	File    string // source file path, when known
	Line    int    // 1-based record index within the file
	Field   string // offending field, when identifiable
	Err     error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed %s record", e.Dataset)
	if e.File != "" {
		msg += fmt.Sprintf(" %s:%d", e.File, e.Line)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field=%s", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// StorageWriteError reports a sink failure while persisting one table.
// It always aborts the run; bulk overwrite is atomic per table but not
// across tables, so the caller logs which tables were already written.
type StorageWriteError struct {
	Table string
	Err   error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write %s: %v", e.Table, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
