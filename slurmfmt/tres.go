package slurmfmt

import (
	"strings"

	"github.com/samber/mo"
)

// Which keys of an allocation list carry the CPU and node counts.  The slurmdbd tables use the
// numeric TRES ids ("1=16,4=3"), sacct's AllocTRES uses names ("cpu=16,mem=64G,node=3").

type ResourceKeys struct {
	CPU  string
	Node string
}

var (
	TRESIdKeys   = ResourceKeys{CPU: "1", Node: "4"}
	TRESNameKeys = ResourceKeys{CPU: "cpu", Node: "node"}
)

// Extract CPU and node counts from a legacy tres_alloc list like "1=16,2=64000,4=3".

func ParseResourceList(text string) (cpus, nodes mo.Option[int64]) {
	return ParseResourceListWith(text, TRESIdKeys)
}

// Entries without `=` and unknown keys are skipped; a value that is not a non-negative integer
// leaves its count absent.  If a key repeats, the last one wins.

func ParseResourceListWith(text string, keys ResourceKeys) (cpus, nodes mo.Option[int64]) {
	cpus, nodes = mo.None[int64](), mo.None[int64]()
	for _, entry := range strings.Split(text, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(entry), "=")
		if !found {
			continue
		}
		var target *mo.Option[int64]
		switch strings.TrimSpace(k) {
		case keys.CPU:
			target = &cpus
		case keys.Node:
			target = &nodes
		default:
			continue
		}
		if n, ok := parseUint(strings.TrimSpace(v)); ok {
			*target = mo.Some(n)
		} else {
			*target = mo.None[int64]()
		}
	}
	return
}
