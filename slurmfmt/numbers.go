package slurmfmt

import (
	"math"
)

// Parse a run of decimal digits starting at s[i].  Returns the value and the index of the first
// non-digit, or -1 if there were no digits or the value overflowed int64.

func uintHere(s string, i int) (int64, int) {
	start := i
	var n int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		d := int64(s[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, -1
		}
		n = n*10 + d
		i++
	}
	if i == start {
		return 0, -1
	}
	return n, i
}

// Parse s as a whole as a non-negative decimal integer.

func parseUint(s string) (int64, bool) {
	n, i := uintHere(s, 0)
	if i != len(s) {
		return 0, false
	}
	return n, true
}

// Parse a non-negative decimal with optional fraction, no sign, no exponent.  Returns the value
// and the index of the first character not part of the number, or -1.

func decimalHere(s string, i int) (float64, int) {
	n, j := uintHere(s, i)
	if j < 0 {
		return 0, -1
	}
	x := float64(n)
	if j < len(s) && s[j] == '.' {
		f, k := uintHere(s, j+1)
		if k < 0 {
			return 0, -1
		}
		x += float64(f) / math.Pow10(k-(j+1))
		j = k
	}
	return x, j
}
