package slurmfmt

import (
	"strings"

	"github.com/samber/mo"
)

// Parse a ReqMem request `<integer><unit?><scope?>` into total megabytes.
//
// unit is K, M or G (either case), absent meaning megabytes.  scope is n (per node) or c (per
// CPU), either case, absent meaning the value is already a total.  A per-node or per-CPU value is
// multiplied by the node or CPU count, or by 1 if that count is absent.
//
// A zero request means "no request" to us, so "0", "0Gn" and a zero count all come out absent, as
// do blank and malformed input.

func ParseMemory(text string, nodes, cpus mo.Option[int64]) mo.Option[float64] {
	s := strings.TrimSpace(text)
	n, i := uintHere(s, 0)
	if i < 0 || n == 0 {
		return mo.None[float64]()
	}

	mb := float64(n)
	if i < len(s) {
		switch s[i] {
		case 'K', 'k':
			mb /= 1024
			i++
		case 'M', 'm':
			i++
		case 'G', 'g':
			mb *= 1024
			i++
		}
	}
	if i < len(s) {
		switch s[i] {
		case 'N', 'n':
			mb *= float64(nodes.OrElse(1))
			i++
		case 'C', 'c':
			mb *= float64(cpus.OrElse(1))
			i++
		}
	}
	if i != len(s) || mb <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(mb)
}

// Parse a usage size such as AveRSS "5135468K" or AveDiskRead "5098.29M" into megabytes.  The
// magnitude may have a fraction; the suffix is K, M, G or T, absent meaning bytes.

func ParseByteSize(text string) mo.Option[float64] {
	s := strings.TrimSpace(text)
	x, i := decimalHere(s, 0)
	if i < 0 {
		return mo.None[float64]()
	}
	mb := x / (1024 * 1024)
	if i < len(s) {
		switch s[i] {
		case 'K', 'k':
			mb = x / 1024
		case 'M', 'm':
			mb = x
		case 'G', 'g':
			mb = x * 1024
		case 'T', 't':
			mb = x * 1024 * 1024
		default:
			return mo.None[float64]()
		}
		i++
	}
	if i != len(s) {
		return mo.None[float64]()
	}
	return mo.Some(mb)
}
