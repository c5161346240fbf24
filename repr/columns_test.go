package repr

import (
	"testing"
	"time"

	"github.com/samber/mo"

	"jobclean/state"
)

func TestColumnNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range ColumnNames() {
		if seen[name] {
			t.Fatalf("Duplicate column %s", name)
		}
		seen[name] = true
		if _, found := LookupColumn(name); !found {
			t.Fatalf("Column %s not indexed", name)
		}
	}
	if _, found := LookupColumn("nonesuch"); found {
		t.Fatalf("Found nonexistent column")
	}
}

func TestColumnsRoundTrip(t *testing.T) {
	start := time.Date(2024, 8, 5, 9, 1, 8, 0, time.UTC)
	r := JobRecord{
		Era:               EraCurrent,
		JobID:             mo.Some("1234"),
		JobName:           mo.Some("jupyter-notebook"),
		StartTime:         mo.Some(start),
		TimeLimit:         mo.Some[int64](3600),
		RequestedMemoryMB: mo.Some(0.0078125),
		State:             mo.Some(state.Timeout),
		JobNameGroup:      "jupyter",
	}
	var s JobRecord
	for _, c := range Columns {
		c.Set(&s, c.Get(&r))
	}
	for _, c := range Columns {
		if c.Get(&s) != c.Get(&r) {
			t.Fatalf("Column %s: got %q want %q", c.Name, c.Get(&s), c.Get(&r))
		}
	}
	if s.SubmitTime.IsPresent() || s.Account.IsPresent() || s.CoreSeconds.IsPresent() {
		t.Fatalf("Absent fields became present")
	}
	if !s.StartTime.MustGet().Equal(start) {
		t.Fatalf("Start time %v", s.StartTime)
	}
}

func TestColumnSetRejects(t *testing.T) {
	var r JobRecord
	c, _ := LookupColumn("elapsed_seconds")
	c.Set(&r, "-5")
	if r.ElapsedSeconds.IsPresent() {
		t.Fatalf("Negative accepted")
	}
	c, _ = LookupColumn("efficiency")
	c.Set(&r, "NaN")
	if r.Efficiency.IsPresent() {
		t.Fatalf("NaN accepted")
	}
	c.Set(&r, "1.25")
	if r.Efficiency.MustGet() != 1.25 {
		t.Fatalf("Efficiency %v", r.Efficiency)
	}
	c, _ = LookupColumn("state")
	c.Set(&r, "EXPLODED")
	if r.State.IsPresent() {
		t.Fatalf("Bad state accepted")
	}
}
