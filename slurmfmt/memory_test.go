package slurmfmt

import (
	"math"
	"testing"

	"github.com/samber/mo"
)

func TestParseMemory(t *testing.T) {
	one := mo.Some[int64](1)
	type good struct {
		input       string
		nodes, cpus mo.Option[int64]
		expect      float64
	}
	for _, g := range []good{
		{"4Gn", mo.Some[int64](2), one, 8192},
		{"4000M", one, one, 4000},
		{"2Gc", one, mo.Some[int64](4), 8192},
		{"8K", one, one, 8.0 / 1024},
		{"8000", one, one, 8000},
		{"4000Mn", mo.Some[int64](3), one, 12000},
		{"2gN", mo.Some[int64](2), one, 4096},
		{"2Gn", mo.None[int64](), one, 2048},
		{"2Gc", one, mo.None[int64](), 2048},
		{"512c", one, mo.Some[int64](2), 1024},
		{"64G", mo.Some[int64](5), mo.Some[int64](5), 65536},
	} {
		v, ok := ParseMemory(g.input, g.nodes, g.cpus).Get()
		if !ok {
			t.Fatalf("%q: expected %v, got absent", g.input, g.expect)
		}
		if math.Abs(v-g.expect) > 1e-12 {
			t.Fatalf("%q: expected %v, got %v", g.input, g.expect, v)
		}
	}

	for _, bad := range []string{
		"", "0", "0Gn", "0M", "bad", "G", "4X", "4Gx", "4Gnc", "4GG", "-4G", "4.5G", "4 G",
	} {
		if ParseMemory(bad, one, one).IsPresent() {
			t.Fatalf("%q: expected absent", bad)
		}
	}
	if ParseMemory("4Gn", mo.Some[int64](0), one).IsPresent() {
		t.Fatalf("Zero nodes should give absent")
	}
}

func TestParseByteSize(t *testing.T) {
	type good struct {
		input  string
		expect float64
	}
	for _, g := range []good{
		{"5135468K", 5135468.0 / 1024},
		{"5098.29M", 5098.29},
		{"3.69M", 3.69},
		{"2G", 2048},
		{"1T", 1024 * 1024},
		{"1048576", 1},
		{"0", 0},
	} {
		v, ok := ParseByteSize(g.input).Get()
		if !ok || math.Abs(v-g.expect) > 1e-9 {
			t.Fatalf("%q: expected %v, got %v %v", g.input, g.expect, v, ok)
		}
	}
	for _, bad := range []string{"", "M", "12Q", "1.M", "12MM", "-1K"} {
		if ParseByteSize(bad).IsPresent() {
			t.Fatalf("%q: expected absent", bad)
		}
	}
}
