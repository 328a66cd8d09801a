// Package pipeline wires the full run end-to-end: walk the two dataset
// roots, parse and normalize in parallel partitions, resolve facts, and
// persist the five tables through the configured sink.
//
// Concurrency model:
//
//	catalog files ─┐                    ┌─ Catalog Normalizer ─┐
//	               ├─ N partition workers                      ├─ Fact Resolver → Sink
//	event files  ──┘                    └─ Event Normalizer  ──┘
//
// Parsing runs file-at-a-time across a bounded worker group; the two
// datasets are read concurrently with each other. Deduplication and
// surrogate-key assignment happen after the partition merge, as a global
// operation over all parsed entries; partition-local dedup would break
// the uniqueness invariants. Surrogate ids are content hashes, so no
// cross-partition coordination is needed for key assignment.
//
// Failure semantics: a malformed record is skipped and logged, never
// aborting its file; a sink write failure aborts the run. No retries
// anywhere: a failure is terminal for its unit of work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"musicdw/internal/config"
	"musicdw/internal/datasource/file"
	"musicdw/internal/metrics"
	"musicdw/internal/model"
	"musicdw/internal/normalize"
	"musicdw/internal/parser/ndjson"
	"musicdw/internal/resolve"
	"musicdw/internal/storage"
	"musicdw/pkg/records"
)

// Report summarizes one run for callers and exit-code mapping.
type Report struct {
	CatalogFiles  int
	EventFiles    int
	CatalogParsed int
	EventsParsed  int
	Songs         int
	Artists       int
	Users         int
	Times         int
	Songplays     int

	// SkippedRecords counts malformed records dropped with per-record
	// isolation; Skipped keeps the first few for the summary log.
	SkippedRecords int
	Skipped        []error
}

// Completed reports whether the run finished without skipping records.
func (r *Report) Completed() bool { return r.SkippedRecords == 0 }

// maxSkipDetail bounds how many skipped-record messages are retained and
// logged verbatim; the rest are only counted.
const maxSkipDetail = 5

// skipLog collects skipped-record errors across partition workers.
type skipLog struct {
	mu    sync.Mutex
	count int
	first []error
}

func (s *skipLog) add(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if len(s.first) < maxSkipDetail {
		s.first = append(s.first, err)
	}
}

// Run executes the full pipeline described by p. The returned Report is
// valid when err is nil; a non-nil err means the run aborted.
func Run(ctx context.Context, p config.Pipeline) (*Report, error) {
	job := p.Job
	if job == "" {
		job = "music_dw"
	}
	workers := pickInt(p.Runtime.PartitionWorkers, getenvInt("DW_PARTITION_WORKERS", 4))

	rep := &Report{}
	skips := &skipLog{}

	// Stage 1: parse + normalize both datasets, concurrently.
	var (
		catalog normalize.CatalogResult
		events  normalize.EventResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		entries, files, err := parseCatalog(gctx, p.Sources.Catalog.Root, workers, skips)
		metrics.RecordStage(job, "catalog", err, time.Since(start))
		if err != nil {
			return err
		}
		rep.CatalogFiles = files
		rep.CatalogParsed = len(entries)
		catalog = normalize.Catalog(entries, p.Dedup.Artists)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		entries, files, err := parseEvents(gctx, p.Sources.Events.Root, workers, skips)
		metrics.RecordStage(job, "events", err, time.Since(start))
		if err != nil {
			return err
		}
		rep.EventFiles = files
		rep.EventsParsed = len(entries)
		events = normalize.Events(entries, p.Dedup.Users)
		for _, skip := range events.Skipped {
			skips.add(skip)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep.Songs = len(catalog.Songs)
	rep.Artists = len(catalog.Artists)
	rep.Users = len(events.Users)
	rep.Times = len(events.Times)

	// Stage 2: resolve facts.
	start := time.Now()
	facts := resolve.New(catalog.Songs, catalog.Artists).Resolve(events.Plays)
	metrics.RecordStage(job, "resolve", nil, time.Since(start))
	rep.Songplays = len(facts)

	metrics.RecordRows(job, "catalog_parsed", int64(rep.CatalogParsed))
	metrics.RecordRows(job, "events_parsed", int64(rep.EventsParsed))
	metrics.RecordRows(job, "plays", int64(rep.Songplays))

	// Stage 3: persist all five tables through the sink.
	start = time.Now()
	err := writeTables(ctx, p, catalog, events, facts)
	metrics.RecordStage(job, "write", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	rep.SkippedRecords = skips.count
	rep.Skipped = skips.first
	metrics.RecordRows(job, "malformed_skipped", int64(rep.SkippedRecords))

	logSummary(rep)
	return rep, nil
}

// parseCatalog walks root and extracts typed catalog entries, file-parallel
// across the worker group. Entry order follows the sorted file list so the
// merge is deterministic.
func parseCatalog(ctx context.Context, root string, workers int, skips *skipLog) ([]model.CatalogEntry, int, error) {
	return parseDataset(ctx, "catalog", root, workers, skips, ndjson.ToCatalogEntry)
}

// parseEvents is the event-log counterpart of parseCatalog.
func parseEvents(ctx context.Context, root string, workers int, skips *skipLog) ([]model.EventEntry, int, error) {
	return parseDataset(ctx, "events", root, workers, skips, ndjson.ToEventEntry)
}

// parseDataset walks root for NDJSON files and extracts typed entries with
// the given function. Files are processed concurrently up to the worker
// limit; within a file, a bad line or a failed extraction skips that one
// record and continues. An I/O failure aborts the run.
func parseDataset[T any](
	ctx context.Context,
	dataset, root string,
	workers int,
	skips *skipLog,
	extract func(records.Record) (T, error),
) ([]T, int, error) {
	paths, err := file.ListJSON(root)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: list %s: %w", dataset, root, err)
	}
	log.Printf("%s: %d files found in %s", dataset, len(paths), root)

	perFile := make([][]T, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			src := file.NewLocal(path)
			rc, err := src.Open(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", dataset, err)
			}
			defer rc.Close()

			dec := ndjson.NewDecoder(rc)
			for {
				rec, line, err := dec.Next()
				if err == io.EOF {
					return nil
				}
				var pe *ndjson.ParseError
				if errors.As(err, &pe) {
					skips.add(fmt.Errorf("%s: %s: %w", dataset, path, pe))
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %s: %w", dataset, path, err)
				}

				entry, err := extract(rec)
				if err != nil {
					skips.add(locate(err, path, line))
					continue
				}
				perFile[i] = append(perFile[i], entry)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var out []T
	for _, entries := range perFile {
		out = append(out, entries...)
	}
	return out, len(paths), nil
}

// locate attaches file/line context to a malformed-record error.
func locate(err error, path string, line int) error {
	var mr *model.MalformedRecordError
	if errors.As(err, &mr) {
		mr.File = path
		mr.Line = line
		return mr
	}
	return fmt.Errorf("%s:%d: %w", path, line, err)
}

// writeTables persists the five derived tables and commits the run.
func writeTables(
	ctx context.Context,
	p config.Pipeline,
	catalog normalize.CatalogResult,
	events normalize.EventResult,
	facts []model.SongplayFact,
) error {
	sink, err := storage.New(ctx, storage.Config{
		Kind:            p.Storage.Kind,
		DSN:             p.Storage.DSN,
		Root:            p.Storage.Root,
		AutoCreateTable: p.Storage.AutoCreateTable,
	})
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer sink.Close()

	for _, t := range BuildTables(catalog, events, facts) {
		if err := sink.WriteTable(ctx, t); err != nil {
			return err
		}
	}
	return sink.Commit(ctx)
}

// BuildTables assembles the five output tables with their column orders
// and intended partition layouts.
func BuildTables(
	catalog normalize.CatalogResult,
	events normalize.EventResult,
	facts []model.SongplayFact,
) []model.Table {
	songs := model.Table{
		Name:          "songs",
		Columns:       model.SongColumns,
		PartitionKeys: []string{"year", "artist_id"},
	}
	for _, s := range catalog.Songs {
		songs.Rows = append(songs.Rows, s.Row())
	}

	artists := model.Table{Name: "artists", Columns: model.ArtistColumns}
	for _, a := range catalog.Artists {
		artists.Rows = append(artists.Rows, a.Row())
	}

	users := model.Table{Name: "users", Columns: model.UserColumns}
	for _, u := range events.Users {
		users.Rows = append(users.Rows, u.Row())
	}

	times := model.Table{
		Name:          "time",
		Columns:       model.TimeColumns,
		PartitionKeys: []string{"year", "month"},
	}
	for _, t := range events.Times {
		times.Rows = append(times.Rows, t.Row())
	}

	songplays := model.Table{
		Name:          "songplays",
		Columns:       model.SongplayColumns,
		PartitionKeys: []string{"year", "month"},
	}
	for _, f := range facts {
		songplays.Rows = append(songplays.Rows, f.Row())
	}

	return []model.Table{songs, artists, users, times, songplays}
}

// logSummary emits the end-of-run stats line.
func logSummary(r *Report) {
	log.Printf(
		"summary: catalog_files=%d event_files=%d songs=%d artists=%d users=%d time=%d songplays=%d skipped=%d",
		r.CatalogFiles, r.EventFiles, r.Songs, r.Artists, r.Users, r.Times, r.Songplays, r.SkippedRecords,
	)
	for _, err := range r.Skipped {
		log.Printf("skipped: %v", err)
	}
	if r.SkippedRecords > len(r.Skipped) {
		log.Printf("skipped: ... and %d more", r.SkippedRecords-len(r.Skipped))
	}
}

// pickInt returns v when positive, otherwise the fallback.
func pickInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// getenvInt reads an integer environment override, returning def when the
// variable is unset or not an integer.
func getenvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
