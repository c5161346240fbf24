// Combining per-era datasets into one.

package merge

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"jobclean/repr"
	"jobclean/state"
)

// Concatenate the datasets in argument order and stable-sort by start time, ascending, with records
// that never started last.  Identifier columns are brought to one spelling so that the eras agree:
// values are trimmed and integral float spellings ("2001.0", from spreadsheet exports) become
// integers.  Job ids get the float rewrite only in legacy records; elsewhere "1001.0" is step 0 of
// job 1001 and is only trimmed.  The extra columns are the union of the inputs'.
//
// The inputs are not modified.

func Merge(sets ...repr.Dataset) repr.Dataset {
	total := 0
	extra := make(map[string]bool)
	for _, ds := range sets {
		total += len(ds.Records)
		for _, c := range ds.ExtraColumns {
			extra[c] = true
		}
	}

	records := make([]repr.JobRecord, 0, total)
	for _, ds := range sets {
		for _, r := range ds.Records {
			if r.Era == repr.EraLegacy {
				r.JobID = coerce(r.JobID)
			} else {
				r.JobID = trim(r.JobID)
			}
			r.UserID = coerce(r.UserID)
			r.Partition = coerce(r.Partition)
			r.Account = coerce(r.Account)
			r.ExitCode = coerce(r.ExitCode)
			r.State = coerceState(r.State)
			records = append(records, r)
		}
	}

	slices.SortStableFunc(records, func(a, b repr.JobRecord) int {
		return compareStart(a.StartTime, b.StartTime)
	})

	var extraColumns []string
	if len(extra) > 0 {
		extraColumns = slices.Sorted(maps.Keys(extra))
	}
	return repr.Dataset{Records: records, ExtraColumns: extraColumns}
}

func compareStart(a, b mo.Option[time.Time]) int {
	at, aok := a.Get()
	bt, bok := b.Get()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	default:
		return at.Compare(bt)
	}
}

// Uniform string form of an identifier.  A value that trims to nothing is absent.

func coerce(v mo.Option[string]) mo.Option[string] {
	s, ok := v.Get()
	if !ok {
		return v
	}
	s = Canonical(s)
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}

func trim(v mo.Option[string]) mo.Option[string] {
	s, ok := v.Get()
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}

func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if strings.IndexByte(s, '.') == -1 {
		return s
	}
	// Only plain decimals: job ids like "123.batch" and exit codes like "0:0" pass through, and
	// so do exponent forms, which are not spreadsheet artifacts.
	if strings.ContainsAny(s, "eExXpP") {
		return s
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || x != math.Trunc(x) || math.Abs(x) >= 1<<53 {
		return s
	}
	return strconv.FormatInt(int64(x), 10)
}

// States are already canonical; this only guards against a record built by hand with a stray
// spelling.

func coerceState(v mo.Option[state.State]) mo.Option[state.State] {
	s, ok := v.Get()
	if !ok {
		return v
	}
	return state.Parse(strings.TrimSpace(s.String()))
}
