package ndjson

import (
	"fmt"

	"musicdw/internal/model"
	"musicdw/pkg/records"
)

// ToCatalogEntry extracts a typed catalog entry from a raw record.
//
// Required fields: artist_id, artist_name, title, duration, year. A missing
// or untypeable required field yields a *model.MalformedRecordError naming
// the field; optional fields (location, coordinates, num_songs) default to
// their zero values.
func ToCatalogEntry(rec records.Record) (model.CatalogEntry, error) {
	var e model.CatalogEntry
	var ok bool

	if e.ArtistID, ok = rec.String("artist_id"); !ok || e.ArtistID == "" {
		return e, malformed("catalog", "artist_id")
	}
	if e.ArtistName, ok = rec.String("artist_name"); !ok {
		return e, malformed("catalog", "artist_name")
	}
	if e.Title, ok = rec.String("title"); !ok || e.Title == "" {
		return e, malformed("catalog", "title")
	}
	if e.Duration, ok = rec.Float64("duration"); !ok {
		return e, malformed("catalog", "duration")
	}
	if e.Year, ok = rec.Int64("year"); !ok {
		return e, malformed("catalog", "year")
	}

	e.ArtistLocation, _ = rec.String("artist_location")
	e.ArtistLatitude = rec.NullableFloat64("artist_latitude")
	e.ArtistLongitude = rec.NullableFloat64("artist_longitude")
	e.NumSongs, _ = rec.Int64("num_songs")

	return e, nil
}

// ToEventEntry extracts a typed event entry from a raw record.
//
// Only ts and page are required at parse time: events whose page is not
// "NextSong" are discarded before any other derivation, so their remaining
// fields never matter. The event normalizer enforces the fields a retained
// event needs (userId, level, sessionId).
func ToEventEntry(rec records.Record) (model.EventEntry, error) {
	var e model.EventEntry
	var ok bool

	if e.TS, ok = rec.Int64("ts"); !ok {
		return e, malformed("events", "ts")
	}
	if e.Page, ok = rec.String("page"); !ok || e.Page == "" {
		return e, malformed("events", "page")
	}

	e.UserID, _ = rec.String("userId")
	e.FirstName, _ = rec.String("firstName")
	e.LastName, _ = rec.String("lastName")
	e.Gender, _ = rec.String("gender")
	e.Level, _ = rec.String("level")
	e.Song, _ = rec.String("song")
	e.Artist, _ = rec.String("artist")
	e.Length, _ = rec.Float64("length")
	e.SessionID, _ = rec.Int64("sessionId")
	e.Location, _ = rec.String("location")
	e.UserAgent, _ = rec.String("userAgent")

	return e, nil
}

func malformed(dataset, field string) error {
	return &model.MalformedRecordError{
		Dataset: dataset,
		Field:   field,
		Err:     fmt.Errorf("missing or invalid value"),
	}
}
