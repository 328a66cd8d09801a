// Package model defines the raw input entries, the derived star-schema row
// types, and the table metadata shared by the normalizers, the resolver,
// and the storage backends.
//
// Field sets mirror the two source datasets: a song/artist metadata catalog
// and a user listening event log. Derived tables form a star schema with
// four dimensions (songs, artists, users, time) and one fact (songplays).
package model

import "time"

// CatalogEntry is one raw record of the song/artist metadata catalog.
type CatalogEntry struct {
	ArtistID        string
	ArtistName      string
	ArtistLocation  string
	ArtistLatitude  *float64
	ArtistLongitude *float64
	Duration        float64
	NumSongs        int64
	Title           string
	Year            int64
}

// EventEntry is one raw record of the user listening event log.
type EventEntry struct {
	TS        int64 // epoch milliseconds
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
	Page      string
	Song      string
	Artist    string
	Length    float64
	SessionID int64
	Location  string
	UserAgent string
}

// SongDim is one row of the songs dimension. SongID is a surrogate key
// derived from the dedup key (Title, ArtistID, Year, Duration).
type SongDim struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int64
	Duration float64
}

// ArtistDim is one row of the artists dimension.
type ArtistDim struct {
	ArtistID  string
	Name      string
	Location  string
	Latitude  *float64
	Longitude *float64
}

// UserDim is one row of the users dimension. Under full-tuple dedup a user
// whose subscription level changed yields one row per distinct tuple.
type UserDim struct {
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// TimeDim is one row of the time dimension, derived from a distinct event
// timestamp. Weekday uses ISO-8601 numbering: Monday=1 .. Sunday=7.
type TimeDim struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   int
}

// SongplayFact is one row of the songplays fact table. SongID and ArtistID
// are nil when the event matched no catalog entry; the row is still kept.
type SongplayFact struct {
	StartTime time.Time
	UserID    string
	Level     string
	SongID    *string
	ArtistID  *string
	SessionID int64
	Location  string
	UserAgent string
	Year      int
	Month     int
}

// Table is the unit handed to a storage backend: one named table with its
// ordered columns, the partition keys a partitioned backend should apply,
// and rows aligned to Columns.
type Table struct {
	Name          string
	Columns       []string
	PartitionKeys []string
	Rows          [][]any
}

// Column orders for the five output tables. Storage backends and DDL rely
// on these staying in sync with the Row methods below.
var (
	SongColumns     = []string{"song_id", "title", "artist_id", "year", "duration"}
	ArtistColumns   = []string{"artist_id", "name", "location", "latitude", "longitude"}
	UserColumns     = []string{"user_id", "first_name", "last_name", "gender", "level"}
	TimeColumns     = []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}
	SongplayColumns = []string{"start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent", "year", "month"}
)

func (s SongDim) Row() []any {
	return []any{s.SongID, s.Title, s.ArtistID, s.Year, s.Duration}
}

func (a ArtistDim) Row() []any {
	return []any{a.ArtistID, a.Name, a.Location, nullableFloat(a.Latitude), nullableFloat(a.Longitude)}
}

func (u UserDim) Row() []any {
	return []any{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}
}

func (t TimeDim) Row() []any {
	return []any{t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday}
}

func (f SongplayFact) Row() []any {
	return []any{
		f.StartTime, f.UserID, f.Level,
		nullableString(f.SongID), nullableString(f.ArtistID),
		f.SessionID, f.Location, f.UserAgent, f.Year, f.Month,
	}
}

// nullableFloat converts *float64 to a driver-friendly any (nil for SQL NULL).
func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
