package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/samber/mo"

	"jobclean/repr"
)

func TestDerive(t *testing.T) {
	submit := time.Date(2024, 8, 5, 9, 0, 0, 0, time.UTC)
	r := repr.JobRecord{
		SubmitTime:     mo.Some(submit),
		StartTime:      mo.Some(submit.Add(68 * time.Second)),
		ElapsedSeconds: mo.Some[int64](3600),
		RequestedCPUs:  mo.Some[int64](4),
		CPUTimeSeconds: mo.Some[int64](18000),
		Partition:      mo.Some(" normal ,accel"),
		JobName:        mo.Some("Jupyter-Lab"),
	}
	d := Derive(r)
	if d.WaitSeconds.MustGet() != 68 {
		t.Fatalf("Wait %v", d.WaitSeconds)
	}
	if d.CoreSeconds.MustGet() != 14400 {
		t.Fatalf("Core %v", d.CoreSeconds)
	}
	// Not clamped
	if d.Efficiency.MustGet() != 1.25 {
		t.Fatalf("Efficiency %v", d.Efficiency)
	}
	if d.Year.MustGet() != 2024 || d.Month.MustGet() != 8 {
		t.Fatalf("Date parts %v %v", d.Year, d.Month)
	}
	if d.PartitionMain.MustGet() != "normal" {
		t.Fatalf("Partition %v", d.PartitionMain)
	}
	if d.JobNameGroup != GroupJupyter {
		t.Fatalf("Group %v", d.JobNameGroup)
	}
	if r.WaitSeconds.IsPresent() || r.JobNameGroup != "" {
		t.Fatalf("Input was modified")
	}
}

func TestDeriveAbsent(t *testing.T) {
	submit := time.Date(2024, 8, 5, 9, 0, 0, 0, time.UTC)
	cases := []repr.JobRecord{
		// start before submit
		{SubmitTime: mo.Some(submit), StartTime: mo.Some(submit.Add(-time.Second))},
		// zero elapsed
		{ElapsedSeconds: mo.Some[int64](0), RequestedCPUs: mo.Some[int64](8), CPUTimeSeconds: mo.Some[int64](5)},
		// zero cpus
		{ElapsedSeconds: mo.Some[int64](100), RequestedCPUs: mo.Some[int64](0)},
		// no cpu time
		{ElapsedSeconds: mo.Some[int64](100), RequestedCPUs: mo.Some[int64](2)},
		{},
	}
	for i, r := range cases {
		d := Derive(r)
		if d.WaitSeconds.IsPresent() {
			t.Fatalf("#%d: wait %v", i, d.WaitSeconds)
		}
		if d.Efficiency.IsPresent() {
			t.Fatalf("#%d: efficiency %v", i, d.Efficiency)
		}
		if i < 3 && d.CoreSeconds.IsPresent() {
			t.Fatalf("#%d: core %v", i, d.CoreSeconds)
		}
		if d.PartitionMain.IsPresent() {
			t.Fatalf("#%d: partition %v", i, d.PartitionMain)
		}
		// Only the first case has a start time
		if hasDate := d.Year.IsPresent() || d.Month.IsPresent(); hasDate != (i == 0) {
			t.Fatalf("#%d: date %v %v", i, d.Year, d.Month)
		}
		if d.JobNameGroup != GroupUnknown {
			t.Fatalf("#%d: group %s", i, d.JobNameGroup)
		}
	}
	if d := Derive(cases[0]); d.Year.MustGet() != 2024 || d.Month.MustGet() != 8 {
		t.Fatalf("Date from start %v %v", d.Year, d.Month)
	}
	if Derive(cases[3]).CoreSeconds.MustGet() != 200 {
		t.Fatalf("Core seconds")
	}
	if w := Derive(repr.JobRecord{SubmitTime: mo.Some(submit), StartTime: mo.Some(submit)}).WaitSeconds; w.MustGet() != 0 {
		t.Fatalf("Zero wait %v", w)
	}
}

// Every derived number is non-negative and finite, or absent.
func TestDeriveNonNegative(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for e := int64(0); e < 50; e += 7 {
		for c := int64(0); c < 6; c++ {
			for s := -3; s < 3; s++ {
				d := Derive(repr.JobRecord{
					SubmitTime:     mo.Some(base),
					StartTime:      mo.Some(base.Add(time.Duration(s) * time.Minute)),
					ElapsedSeconds: mo.Some(e),
					RequestedCPUs:  mo.Some(c),
					CPUTimeSeconds: mo.Some(e * c / 2),
				})
				for _, v := range []mo.Option[float64]{d.WaitSeconds, d.CoreSeconds, d.Efficiency} {
					if x, ok := v.Get(); ok && (x < 0 || math.IsNaN(x) || math.IsInf(x, 0)) {
						t.Fatalf("Bad value %v for e=%d c=%d s=%d", x, e, c, s)
					}
				}
			}
		}
	}
}

func TestGroupJobName(t *testing.T) {
	cases := map[string]string{
		"jupyterhub-x": GroupJupyter,
		"BASH":         GroupBash,
		"test_mpi":     GroupTest,
		"qe-relax":     GroupQE,
		"Linpack":      "linpack",
		"osu":          "osu",
		"osu_bw":       GroupOther,
		"abc":          GroupShortCode,
		"ab":           GroupShortCode,
		"øæå":          GroupShortCode,
		"simulation":   GroupOther,
	}
	for name, want := range cases {
		if got := GroupJobName(mo.Some(name)); got != want {
			t.Fatalf("%s: got %s want %s", name, got, want)
		}
	}
	if GroupJobName(mo.None[string]()) != GroupUnknown {
		t.Fatalf("Absent name")
	}
}

func TestDeriveAll(t *testing.T) {
	ds := repr.Dataset{
		Records: []repr.JobRecord{
			{JobName: mo.Some("bash")},
			{JobName: mo.Some("stream")},
		},
		ExtraColumns: []string{"Cluster"},
	}
	out := DeriveAll(ds)
	if out.Len() != 2 || out.Records[0].JobNameGroup != GroupBash || out.Records[1].JobNameGroup != "stream" {
		t.Fatalf("DeriveAll %v", out)
	}
	if ds.Records[0].JobNameGroup != "" {
		t.Fatalf("Input dataset modified")
	}
	if len(out.ExtraColumns) != 1 {
		t.Fatalf("Extra columns lost")
	}
}
