package normalize

import (
	"fmt"

	"musicdw/internal/model"
	"musicdw/internal/transform"
)

// nextSongPage is the only page value that counts as a listening event;
// everything else (login, logout, home, ...) is discarded before any other
// derivation.
const nextSongPage = "NextSong"

// Play is a retained event augmented with its time-dimension fields, the
// shape handed to the fact resolver.
type Play struct {
	Event model.EventEntry
	Time  model.TimeDim
}

// EventResult holds everything derived from the event dataset.
type EventResult struct {
	Users []model.UserDim
	Times []model.TimeDim
	Plays []Play

	// Skipped collects retained events that were dropped because a field
	// the fact table needs was missing. One bad row never discards the
	// rest of its file.
	Skipped []error
}

// Events filters the event log to "NextSong" entries and derives the users
// and time dimensions plus the play list for fact resolution.
//
// Users dedup by the configured mode: full tuple (default, so a level
// change yields one row per distinct tuple sharing the user_id) or user_id
// identity. The time dimension gets one row per distinct raw ts value.
func Events(entries []model.EventEntry, userDedup string) EventResult {
	var res EventResult

	var retained []model.EventEntry
	for _, e := range entries {
		if e.Page != nextSongPage {
			continue
		}
		if err := checkPlayable(e); err != nil {
			res.Skipped = append(res.Skipped, err)
			continue
		}
		retained = append(retained, e)
	}

	userKey := func(e model.EventEntry) (string, bool) {
		if userDedup == DedupIdentity {
			return e.UserID, true
		}
		return transform.KeyOf(e.UserID, e.FirstName, e.LastName, e.Gender, e.Level), true
	}
	userDedupper := transform.DeDup[model.EventEntry]{Key: userKey}
	for _, e := range userDedupper.Apply(retained) {
		res.Users = append(res.Users, model.UserDim{
			UserID:    e.UserID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			Level:     e.Level,
		})
	}

	tsDedup := transform.DeDup[model.EventEntry]{
		Key: func(e model.EventEntry) (string, bool) {
			return transform.KeyOf(e.TS), true
		},
	}
	for _, e := range tsDedup.Apply(retained) {
		res.Times = append(res.Times, TimeParts(e.TS))
	}

	for _, e := range retained {
		res.Plays = append(res.Plays, Play{Event: e, Time: TimeParts(e.TS)})
	}

	return res
}

// checkPlayable enforces the fields a retained event must carry to become
// a fact row and a user dimension row. sessionId is an integer whose zero
// value is a legal id, so it is not checked here.
func checkPlayable(e model.EventEntry) error {
	var field string
	switch {
	case e.UserID == "":
		field = "userId"
	case e.Level == "":
		field = "level"
	default:
		return nil
	}
	return &model.MalformedRecordError{
		Dataset: "events",
		Field:   field,
		Err:     fmt.Errorf("required for NextSong events"),
	}
}
