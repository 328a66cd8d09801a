package resolve

import (
	"testing"

	"musicdw/internal/model"
	"musicdw/internal/normalize"
)

// 2000-01-01 00:00:00 UTC in epoch milliseconds.
const newYear2000MS = int64(946684800000)

func play(song, artist string, ts int64) normalize.Play {
	return normalize.Play{
		Event: model.EventEntry{
			TS:        ts,
			UserID:    "1",
			Level:     "free",
			Page:      "NextSong",
			Song:      song,
			Artist:    artist,
			SessionID: 42,
			Location:  "NY",
			UserAgent: "ua",
		},
		Time: normalize.TimeParts(ts),
	}
}

func TestResolveMatch(t *testing.T) {
	t.Parallel()

	songs := []model.SongDim{
		{SongID: "0000000000000001", Title: "Song A", ArtistID: "AR1", Year: 2000, Duration: 180.5},
	}
	artists := []model.ArtistDim{
		{ArtistID: "AR1", Name: "Artist 1"},
	}

	facts := New(songs, artists).Resolve([]normalize.Play{
		play("Song A", "Artist 1", newYear2000MS),
	})
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}

	f := facts[0]
	if f.SongID == nil || *f.SongID != "0000000000000001" {
		t.Fatalf("song_id = %v, want 0000000000000001", f.SongID)
	}
	if f.ArtistID == nil || *f.ArtistID != "AR1" {
		t.Fatalf("artist_id = %v, want AR1", f.ArtistID)
	}
	if f.UserID != "1" || f.Level != "free" || f.SessionID != 42 {
		t.Fatalf("event fields not carried: %+v", f)
	}
	if f.Year != f.StartTime.Year() || f.Month != int(f.StartTime.Month()) {
		t.Fatalf("partition fields disagree with start_time: %+v", f)
	}
}

// A miss keeps the fact row with null foreign keys; the fact cardinality
// always equals the number of plays.
func TestResolveMissKeepsRow(t *testing.T) {
	t.Parallel()

	songs := []model.SongDim{
		{SongID: "0000000000000001", Title: "Song A", ArtistID: "AR1"},
	}
	artists := []model.ArtistDim{
		{ArtistID: "AR1", Name: "Artist 1"},
	}

	plays := []normalize.Play{
		play("Unknown Song", "Artist 1", newYear2000MS),
		play("Song A", "Wrong Artist", newYear2000MS),
		play("Song A", "Artist 1", newYear2000MS),
	}
	facts := New(songs, artists).Resolve(plays)
	if len(facts) != len(plays) {
		t.Fatalf("got %d facts, want %d", len(facts), len(plays))
	}
	if facts[0].SongID != nil || facts[0].ArtistID != nil {
		t.Fatalf("title miss should yield nil keys: %+v", facts[0])
	}
	if facts[1].SongID != nil || facts[1].ArtistID != nil {
		t.Fatalf("artist miss should yield nil keys: %+v", facts[1])
	}
	if facts[2].SongID == nil {
		t.Fatalf("exact match should resolve: %+v", facts[2])
	}
}

// Matching is exact and case-sensitive.
func TestResolveCaseSensitive(t *testing.T) {
	t.Parallel()

	songs := []model.SongDim{
		{SongID: "0000000000000001", Title: "Song A", ArtistID: "AR1"},
	}
	artists := []model.ArtistDim{
		{ArtistID: "AR1", Name: "Artist 1"},
	}
	facts := New(songs, artists).Resolve([]normalize.Play{
		play("song a", "Artist 1", newYear2000MS),
	})
	if facts[0].SongID != nil {
		t.Fatalf("case-insensitive match leaked: %+v", facts[0])
	}
}

// When several song rows satisfy both predicates, the lowest song_id wins
// regardless of dimension order.
func TestResolveTieBreak(t *testing.T) {
	t.Parallel()

	songs := []model.SongDim{
		{SongID: "000000000000000b", Title: "Song A", ArtistID: "AR1"},
		{SongID: "000000000000000a", Title: "Song A", ArtistID: "AR2"},
	}
	artists := []model.ArtistDim{
		{ArtistID: "AR1", Name: "Shared Name"},
		{ArtistID: "AR2", Name: "Shared Name"},
	}

	for _, order := range [][]model.SongDim{songs, {songs[1], songs[0]}} {
		facts := New(order, artists).Resolve([]normalize.Play{
			play("Song A", "Shared Name", newYear2000MS),
		})
		if facts[0].SongID == nil || *facts[0].SongID != "000000000000000a" {
			t.Fatalf("tie-break picked %v, want 000000000000000a", facts[0].SongID)
		}
	}
}
