// Package resolve joins the filtered play events against the songs and
// artists dimensions to produce the songplays fact table.
//
// Matching is exact, case-sensitive string equality on the event's song
// title and artist name; there is no normalization or fuzzy matching. A
// miss is not an error: the fact row is still emitted with null foreign
// keys, so the fact cardinality always equals the number of retained
// events.
package resolve

import (
	"musicdw/internal/model"
	"musicdw/internal/normalize"
)

// Resolver holds lookup indexes over the song and artist dimensions.
type Resolver struct {
	songsByTitle map[string][]model.SongDim
	artistsByID  map[string][]model.ArtistDim
}

// New builds a Resolver over the given dimensions. Both indexes tolerate
// multiple rows per key: the catalog can legitimately carry several songs
// with one title, and full-tuple artist dedup can carry several rows per
// artist_id.
func New(songs []model.SongDim, artists []model.ArtistDim) *Resolver {
	r := &Resolver{
		songsByTitle: make(map[string][]model.SongDim, len(songs)),
		artistsByID:  make(map[string][]model.ArtistDim, len(artists)),
	}
	for _, s := range songs {
		r.songsByTitle[s.Title] = append(r.songsByTitle[s.Title], s)
	}
	for _, a := range artists {
		r.artistsByID[a.ArtistID] = append(r.artistsByID[a.ArtistID], a)
	}
	return r
}

// Resolve produces one fact row per play. Events whose (song, artist) pair
// matches no dimension rows get nil song_id and artist_id; they are never
// dropped.
func (r *Resolver) Resolve(plays []normalize.Play) []model.SongplayFact {
	out := make([]model.SongplayFact, 0, len(plays))
	for _, p := range plays {
		fact := model.SongplayFact{
			StartTime: p.Time.StartTime,
			UserID:    p.Event.UserID,
			Level:     p.Event.Level,
			SessionID: p.Event.SessionID,
			Location:  p.Event.Location,
			UserAgent: p.Event.UserAgent,
			Year:      p.Time.Year,
			Month:     p.Time.Month,
		}
		if song, ok := r.match(p.Event.Song, p.Event.Artist); ok {
			id := song.SongID
			artistID := song.ArtistID
			fact.SongID = &id
			fact.ArtistID = &artistID
		}
		out = append(out, fact)
	}
	return out
}

// match finds the song dimension row whose title equals the event's song
// field and whose artist row's name equals the event's artist field.
//
// When several rows satisfy both predicates, the lowest song_id wins. The
// source pipelines left this order-dependent; with hash-derived surrogate
// ids the lexicographic minimum is stable across partitionings and runs.
func (r *Resolver) match(title, artist string) (model.SongDim, bool) {
	var best model.SongDim
	found := false
	for _, s := range r.songsByTitle[title] {
		if !r.artistNamed(s.ArtistID, artist) {
			continue
		}
		if !found || s.SongID < best.SongID {
			best = s
			found = true
		}
	}
	return best, found
}

func (r *Resolver) artistNamed(artistID, name string) bool {
	for _, a := range r.artistsByID[artistID] {
		if a.Name == name {
			return true
		}
	}
	return false
}
