package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/mo"
)

// Job name groups.  Interactive sessions and a handful of well-known benchmarks make up a large
// share of the jobs and are grouped by name prefix; everything else is "other".

const (
	GroupJupyter   = "jupyter"
	GroupBash      = "bash"
	GroupTest      = "test"
	GroupQE        = "qe"
	GroupShortCode = "short_code"
	GroupOther     = "other"
	GroupUnknown   = "unknown"
)

var namePrefixes = []string{GroupJupyter, GroupBash, GroupTest, GroupQE}

// Benchmarks keep their own name as the group.
var benchmarks = map[string]bool{
	"stream":  true,
	"linpack": true,
	"osu":     true,
	"iozone":  true,
}

func GroupJobName(name mo.Option[string]) string {
	s, ok := name.Get()
	if !ok {
		return GroupUnknown
	}
	lower := strings.ToLower(s)
	for _, p := range namePrefixes {
		if strings.HasPrefix(lower, p) {
			return p
		}
	}
	if benchmarks[lower] {
		return lower
	}
	if utf8.RuneCountInString(s) < 4 {
		return GroupShortCode
	}
	return GroupOther
}
