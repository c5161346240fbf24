package slurmfmt

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

// Layouts seen in the exports, tried in order.  sacct prints local time without a zone;
// from_unixtime() in the slurmdbd dump prints it with a space instead of the T.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Parse a job timestamp.  Zone-less layouts are read in `loc`.  Bare integers are unix epoch
// seconds, with 0 meaning "never" as in the slurmdbd tables.  "Unknown", "None" and blank are
// absent.

func ParseTimestamp(text string, loc *time.Location) mo.Option[time.Time] {
	s := strings.TrimSpace(text)
	switch s {
	case "", "Unknown", "None", "NaT", "nan":
		return mo.None[time.Time]()
	}
	if n, ok := parseUint(s); ok {
		if n == 0 {
			return mo.None[time.Time]()
		}
		return mo.Some(time.Unix(n, 0).In(loc))
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return mo.Some(t)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return mo.Some(t)
		}
	}
	return mo.None[time.Time]()
}
