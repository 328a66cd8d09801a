package normalize

import (
	"time"

	"musicdw/internal/model"
)

// TimeParts expands an event timestamp (epoch milliseconds) into the time
// dimension fields. The millisecond value is truncated to whole seconds and
// converted in the process-local zone, matching the source pipelines.
//
// Weekday numbering is ISO-8601: Monday=1 .. Sunday=7. The two historical
// pipelines disagreed (Sunday=1 vs Monday=0); ISO numbering is used here
// because it is self-consistent with the ISO week-of-year in Week.
func TimeParts(ms int64) model.TimeDim {
	t := time.Unix(ms/1000, 0)
	_, week := t.ISOWeek()

	weekday := int(t.Weekday()) // Go: Sunday=0 .. Saturday=6
	if weekday == 0 {
		weekday = 7
	}

	return model.TimeDim{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   weekday,
	}
}
