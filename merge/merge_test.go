package merge

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobclean/repr"
	"jobclean/state"
)

func at(hour int) mo.Option[time.Time] {
	return mo.Some(time.Date(2021, 6, 1, hour, 0, 0, 0, time.UTC))
}

func job(id string, start mo.Option[time.Time]) repr.JobRecord {
	return repr.JobRecord{JobID: mo.Some(id), StartTime: start}
}

func TestMergeOrder(t *testing.T) {
	legacy := repr.Dataset{Records: []repr.JobRecord{
		job("L1", at(5)),
		job("L2", mo.None[time.Time]()),
		job("L3", at(1)),
		job("L4", at(3)),
	}}
	current := repr.Dataset{Records: []repr.JobRecord{
		job("C1", at(3)),
		job("C2", mo.None[time.Time]()),
		job("C3", at(0)),
	}}
	out := Merge(legacy, current)
	require.Equal(t, 7, out.Len())

	var ids []string
	for _, r := range out.Records {
		ids = append(ids, r.JobID.MustGet())
	}
	// Ties keep concatenation order, never-started jobs go last in their original order
	assert.Equal(t, []string{"C3", "L3", "L4", "C1", "L1", "L2", "C2"}, ids)

	// Inputs untouched
	assert.Equal(t, "L1", legacy.Records[0].JobID.MustGet())
}

func TestMergeCoercion(t *testing.T) {
	a := repr.Dataset{
		Records: []repr.JobRecord{{
			Era:       repr.EraLegacy,
			JobID:     mo.Some("1001.0"),
			UserID:    mo.Some(" 2001 "),
			Partition: mo.Some("normal"),
			Account:   mo.Some("  "),
			ExitCode:  mo.Some("0:0"),
			State:     mo.Some(state.Completed),
		}},
		ExtraColumns: []string{"b"},
	}
	b := repr.Dataset{
		Records: []repr.JobRecord{{
			JobID:    mo.Some("1002.batch"),
			UserID:   mo.Some("2001.5"),
			ExitCode: mo.Some("1.0"),
			State:    mo.Some(state.State(" TIMEOUT")),
		}},
		ExtraColumns: []string{"a", "b"},
	}
	out := Merge(a, b)
	require.Equal(t, 2, out.Len())
	r := out.Records[0]
	assert.Equal(t, "1001", r.JobID.MustGet())
	assert.Equal(t, "2001", r.UserID.MustGet())
	assert.False(t, r.Account.IsPresent())
	assert.Equal(t, "0:0", r.ExitCode.MustGet())

	r = out.Records[1]
	assert.Equal(t, "1002.batch", r.JobID.MustGet())
	assert.Equal(t, "2001.5", r.UserID.MustGet())
	assert.Equal(t, "1", r.ExitCode.MustGet())
	assert.Equal(t, state.Timeout, r.State.MustGet())

	assert.Equal(t, []string{"a", "b"}, out.ExtraColumns)
}

// In sacct output "1001.0" is step 0 of job 1001, not a float spelling of 1001.
func TestMergeKeepsStepIDs(t *testing.T) {
	current := repr.Dataset{Records: []repr.JobRecord{
		{Era: repr.EraCurrent, JobID: mo.Some("1001"), StartTime: at(1)},
		{Era: repr.EraCurrent, JobID: mo.Some(" 1001.0 "), StartTime: at(2)},
		{Era: repr.EraSonar, JobID: mo.Some("1002.0"), StartTime: at(3)},
		{Era: repr.EraCurrent, JobID: mo.Some("  "), StartTime: at(4)},
	}}
	legacy := repr.Dataset{Records: []repr.JobRecord{
		{Era: repr.EraLegacy, JobID: mo.Some("4.0"), StartTime: at(5)},
	}}
	out := Merge(current, legacy)
	require.Equal(t, 5, out.Len())
	assert.Equal(t, "1001", out.Records[0].JobID.MustGet())
	assert.Equal(t, "1001.0", out.Records[1].JobID.MustGet())
	assert.NotEqual(t, out.Records[0].JobID, out.Records[1].JobID)
	assert.Equal(t, "1002.0", out.Records[2].JobID.MustGet())
	assert.False(t, out.Records[3].JobID.IsPresent())
	assert.Equal(t, "4", out.Records[4].JobID.MustGet())
}

func TestCanonical(t *testing.T) {
	cases := map[string]string{
		"123":       "123",
		"123.0":     "123",
		" 7.000 ":   "7",
		"1e3":       "1e3",
		"12.5":      "12.5",
		"abc.def":   "abc.def",
		"5001.0001": "5001.0001",
		"":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Canonical(in), in)
	}
}

func TestMergeEmpty(t *testing.T) {
	out := Merge()
	assert.Equal(t, 0, out.Len())
	assert.Nil(t, out.ExtraColumns)
	out = Merge(repr.Dataset{}, repr.Dataset{Records: []repr.JobRecord{job("x", at(1))}})
	assert.Equal(t, 1, out.Len())
}
