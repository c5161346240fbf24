package slurmfmt

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/mo"
)

const secondsPerDay = 86400

// Parse `HH:MM:SS` or `D-HH:MM:SS` into seconds.  Every part is a non-negative decimal integer;
// MM and SS are not range checked, the values are just weighted.  Anything else is absent.

func ParseDuration(text string) mo.Option[int64] {
	s := strings.TrimSpace(text)
	if s == "" {
		return mo.None[int64]()
	}

	var days int64
	i := 0
	if dash := strings.IndexByte(s, '-'); dash != -1 {
		d, j := uintHere(s, 0)
		if j != dash {
			return mo.None[int64]()
		}
		days = d
		i = dash + 1
	}

	var hms [3]int64
	for k := range hms {
		if k > 0 {
			if i >= len(s) || s[i] != ':' {
				return mo.None[int64]()
			}
			i++
		}
		n, j := uintHere(s, i)
		if j < 0 {
			return mo.None[int64]()
		}
		hms[k] = n
		i = j
	}
	if i != len(s) {
		return mo.None[int64]()
	}

	total := float64(days)*secondsPerDay + float64(hms[0])*3600 + float64(hms[1])*60 + float64(hms[2])
	if total > math.MaxInt64/2 {
		return mo.None[int64]()
	}
	return mo.Some(days*secondsPerDay + hms[0]*3600 + hms[1]*60 + hms[2])
}

// The inverse of ParseDuration: `D-HH:MM:SS` when there is at least one day, otherwise
// `HH:MM:SS`.  Negative input has no representation and yields "".

func FormatDuration(secs int64) string {
	if secs < 0 {
		return ""
	}
	days, rem := secs/secondsPerDay, secs%secondsPerDay
	h, rem := rem/3600, rem%3600
	m, s := rem/60, rem%60
	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// sacct prints CPU usage as [DD-[HH:]]MM:SS[.micros], eg "00:09.522" or "1-02:03:04".  The
// result is in seconds with the fraction kept.
//
// The grammar is simplified to (DD-)?(HH:)?MM:SS(.frac)?

func ParseCPUTime(text string) mo.Option[float64] {
	s := strings.TrimSpace(text)
	if s == "" {
		return mo.None[float64]()
	}

	var days, hours, minutes int64
	var haveHours, haveMinutes bool

	n, i := uintHere(s, 0)
	if i < 0 {
		return mo.None[float64]()
	}
	if i < len(s) && s[i] == '-' {
		days = n
		n, i = uintHere(s, i+1)
		if i < 0 {
			return mo.None[float64]()
		}
	}
	for i < len(s) && s[i] == ':' {
		if haveHours {
			return mo.None[float64]()
		}
		if haveMinutes {
			hours = minutes
			haveHours = true
		}
		minutes = n
		haveMinutes = true
		n, i = uintHere(s, i+1)
		if i < 0 {
			return mo.None[float64]()
		}
	}
	if !haveMinutes {
		return mo.None[float64]()
	}

	seconds := float64(n)
	if i < len(s) && s[i] == '.' {
		f, j := uintHere(s, i+1)
		if j < 0 {
			return mo.None[float64]()
		}
		seconds += float64(f) / math.Pow10(j-(i+1))
		i = j
	}
	if i != len(s) {
		return mo.None[float64]()
	}

	return mo.Some(float64(days*secondsPerDay+hours*3600+minutes*60) + seconds)
}
