// Package normalize derives the star-schema dimension rows from the raw
// catalog and event datasets.
//
// The catalog path produces the songs and artists dimensions; the event
// path produces the users and time dimensions plus the filtered play
// events consumed by the fact resolver. All derivation is pure: the same
// input always yields the same output, regardless of how the input was
// partitioned across files.
package normalize

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"musicdw/internal/model"
	"musicdw/internal/transform"
)

// Dedup key modes for the artists and users dimensions. The source systems
// deduplicated by full tuple, which tolerates multiple rows per id when
// attribute values vary across files; identity mode collapses to one row
// per id (first occurrence wins).
const (
	DedupFullTuple = "full-tuple"
	DedupIdentity  = "identity"
)

// CatalogResult holds the dimensions derived from the catalog dataset.
type CatalogResult struct {
	Songs   []model.SongDim
	Artists []model.ArtistDim
}

// SongID derives the surrogate song identifier from the song dedup key
// (title, artist_id, year, duration). Hashing the key makes assignment
// order-free: partitions can derive ids independently and duplicates of
// the same song always map to the same id, across partitions and runs.
func SongID(title, artistID string, year int64, duration float64) string {
	key := transform.KeyOf(title, artistID, year, duration)
	return fmt.Sprintf("%016x", xxh3.HashString(key))
}

// Catalog derives the songs and artists dimensions from catalog entries.
//
// Songs dedup by (title, artist_id, year, duration), one row per distinct
// key, each assigned its surrogate SongID. Artists dedup by the configured
// mode: full tuple (default) or artist_id identity.
func Catalog(entries []model.CatalogEntry, artistDedup string) CatalogResult {
	songDedup := transform.DeDup[model.CatalogEntry]{
		Key: func(e model.CatalogEntry) (string, bool) {
			return transform.KeyOf(e.Title, e.ArtistID, e.Year, e.Duration), true
		},
	}

	var res CatalogResult
	for _, e := range songDedup.Apply(entries) {
		res.Songs = append(res.Songs, model.SongDim{
			SongID:   SongID(e.Title, e.ArtistID, e.Year, e.Duration),
			Title:    e.Title,
			ArtistID: e.ArtistID,
			Year:     e.Year,
			Duration: e.Duration,
		})
	}

	artistKey := func(e model.CatalogEntry) (string, bool) {
		if artistDedup == DedupIdentity {
			return e.ArtistID, true
		}
		return transform.KeyOf(
			e.ArtistID, e.ArtistName, e.ArtistLocation,
			floatKey(e.ArtistLatitude), floatKey(e.ArtistLongitude),
		), true
	}
	artistDedupper := transform.DeDup[model.CatalogEntry]{Key: artistKey}
	for _, e := range artistDedupper.Apply(entries) {
		res.Artists = append(res.Artists, model.ArtistDim{
			ArtistID:  e.ArtistID,
			Name:      e.ArtistName,
			Location:  e.ArtistLocation,
			Latitude:  e.ArtistLatitude,
			Longitude: e.ArtistLongitude,
		})
	}

	return res
}

// floatKey renders a nullable float for key building; nil and 0 must not
// collide.
func floatKey(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
