package storage

// Star-schema DDL shared by the relational backends. The songplays serial
// key differs by dialect, so each backend supplies its own songplays
// statement and reuses the dimension DDL below.
//
// The tables intentionally carry no uniqueness constraints: append-mode
// reruns insert the same rows again unless the operator adds constraints
// in the store.
var DimensionDDL = []string{
	`CREATE TABLE IF NOT EXISTS songs (
		song_id   TEXT NOT NULL,
		title     TEXT,
		artist_id TEXT,
		year      INT,
		duration  DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		artist_id TEXT NOT NULL,
		name      TEXT,
		location  TEXT,
		latitude  DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT NOT NULL,
		first_name TEXT,
		last_name  TEXT,
		gender     TEXT,
		level      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS "time" (
		start_time TIMESTAMP NOT NULL,
		hour       INT,
		day        INT,
		week       INT,
		month      INT,
		year       INT,
		weekday    INT
	)`,
}
