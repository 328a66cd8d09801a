package normalize

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"musicdw/internal/model"
)

// 2000-01-01 00:00:00 UTC in epoch milliseconds.
const newYear2000MS = int64(946684800000)

func playEvent(userID, level string, ts int64) model.EventEntry {
	return model.EventEntry{
		TS:        ts,
		UserID:    userID,
		FirstName: "First" + userID,
		LastName:  "Last" + userID,
		Gender:    "F",
		Level:     level,
		Page:      "NextSong",
		SessionID: 42,
	}
}

func TestEventsFiltersToNextSong(t *testing.T) {
	t.Parallel()

	entries := []model.EventEntry{
		playEvent("1", "free", newYear2000MS),
		{TS: newYear2000MS, UserID: "1", Level: "free", Page: "Home"},
		{TS: newYear2000MS, UserID: "1", Level: "free", Page: "Logout"},
		playEvent("2", "paid", newYear2000MS+60000),
	}

	res := Events(entries, "")
	if len(res.Plays) != 2 {
		t.Fatalf("got %d plays, want 2", len(res.Plays))
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skips: %v", res.Skipped)
	}
	for _, p := range res.Plays {
		if p.Event.Page != "NextSong" {
			t.Fatalf("retained page %q", p.Event.Page)
		}
	}
}

func TestEventsSkipsUnplayable(t *testing.T) {
	t.Parallel()

	entries := []model.EventEntry{
		playEvent("1", "free", newYear2000MS),
		{TS: newYear2000MS, Page: "NextSong", Level: "free"}, // missing userId
		{TS: newYear2000MS, Page: "NextSong", UserID: "2"},   // missing level
		{TS: newYear2000MS, Page: "Home"},                    // filtered, not an error
	}

	res := Events(entries, "")
	if len(res.Plays) != 1 {
		t.Fatalf("got %d plays, want 1", len(res.Plays))
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("got %d skips, want 2: %v", len(res.Skipped), res.Skipped)
	}
	var mr *model.MalformedRecordError
	if !errors.As(res.Skipped[0], &mr) || mr.Field != "userId" {
		t.Fatalf("first skip = %v, want malformed userId", res.Skipped[0])
	}
}

// sessionId is an integer whose zero value is a legal id; an event without
// one must still become a play.
func TestEventsZeroSessionIDRetained(t *testing.T) {
	t.Parallel()

	e := playEvent("1", "free", newYear2000MS)
	e.SessionID = 0
	res := Events([]model.EventEntry{e}, "")
	if len(res.Plays) != 1 || len(res.Skipped) != 0 {
		t.Fatalf("plays=%d skipped=%v, want 1 play and no skips", len(res.Plays), res.Skipped)
	}
}

func TestEventsUserDedupModes(t *testing.T) {
	t.Parallel()

	// Same user upgrades from free to paid mid-log.
	entries := []model.EventEntry{
		playEvent("1", "free", newYear2000MS),
		playEvent("1", "paid", newYear2000MS+1000),
		playEvent("1", "paid", newYear2000MS+2000),
		playEvent("2", "free", newYear2000MS+3000),
	}

	fullTuple := Events(entries, DedupFullTuple)
	if len(fullTuple.Users) != 3 {
		t.Fatalf("full-tuple: got %d user rows, want 3", len(fullTuple.Users))
	}

	identity := Events(entries, DedupIdentity)
	if len(identity.Users) != 2 {
		t.Fatalf("identity: got %d user rows, want 2", len(identity.Users))
	}
	if identity.Users[0].Level != "free" {
		t.Fatalf("identity kept level %q, want first occurrence free", identity.Users[0].Level)
	}
}

func TestEventsTimeRowsPerDistinctTS(t *testing.T) {
	t.Parallel()

	entries := []model.EventEntry{
		playEvent("1", "free", newYear2000MS),
		playEvent("2", "paid", newYear2000MS), // same instant
		playEvent("1", "free", newYear2000MS+1000),
	}

	res := Events(entries, "")
	if len(res.Times) != 2 {
		t.Fatalf("got %d time rows, want 2", len(res.Times))
	}
	if len(res.Plays) != 3 {
		t.Fatalf("got %d plays, want 3", len(res.Plays))
	}
}

func TestTimeParts(t *testing.T) {
	t.Parallel()

	got := TimeParts(newYear2000MS)
	ref := time.Unix(newYear2000MS/1000, 0)

	want := model.TimeDim{
		StartTime: ref,
		Hour:      ref.Hour(),
		Day:       ref.Day(),
		Month:     int(ref.Month()),
		Year:      ref.Year(),
	}
	_, want.Week = ref.ISOWeek()
	want.Weekday = int(ref.Weekday())
	if want.Weekday == 0 {
		want.Weekday = 7
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TimeParts() = %+v, want %+v", got, want)
	}
	if got.Weekday < 1 || got.Weekday > 7 {
		t.Fatalf("weekday %d outside 1..7", got.Weekday)
	}
}

// Sub-second precision is truncated, so two events within the same second
// share a StartTime.
func TestTimePartsTruncatesMilliseconds(t *testing.T) {
	t.Parallel()

	a := TimeParts(newYear2000MS)
	b := TimeParts(newYear2000MS + 999)
	if !a.StartTime.Equal(b.StartTime) {
		t.Fatalf("timestamps differ: %v vs %v", a.StartTime, b.StartTime)
	}
	c := TimeParts(newYear2000MS + 1000)
	if a.StartTime.Equal(c.StartTime) {
		t.Fatalf("next second collapsed into %v", a.StartTime)
	}
}

// Monday=1 .. Sunday=7: check the full cycle over one week.
func TestTimePartsWeekdayNumbering(t *testing.T) {
	t.Parallel()

	for d := 0; d < 7; d++ {
		ms := newYear2000MS + int64(d)*24*3600*1000
		got := TimeParts(ms)
		ref := time.Unix(ms/1000, 0)
		want := int(ref.Weekday())
		if want == 0 {
			want = 7
		}
		if got.Weekday != want {
			t.Fatalf("day %d: weekday = %d, want %d", d, got.Weekday, want)
		}
	}
}
