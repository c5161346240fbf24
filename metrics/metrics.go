// Derived per-job metrics.  Derivation is a pure function of the record: it never fails, and a
// metric whose inputs are missing or degenerate is absent rather than zero.

package metrics

import (
	"strings"

	"github.com/samber/mo"

	"jobclean/repr"
)

// Recompute every derived field of r.  r is taken by value and the result is a new record; the
// Extra map is shared.

func Derive(r repr.JobRecord) repr.JobRecord {
	r.WaitSeconds = waitSeconds(r)
	r.CoreSeconds = coreSeconds(r)
	r.Efficiency = efficiency(r.CPUTimeSeconds, r.CoreSeconds)
	r.Year, r.Month = mo.None[int64](), mo.None[int64]()
	if start, ok := r.StartTime.Get(); ok {
		r.Year = mo.Some(int64(start.Year()))
		r.Month = mo.Some(int64(start.Month()))
	}
	r.PartitionMain = mainPartition(r.Partition)
	r.JobNameGroup = GroupJobName(r.JobName)
	return r
}

func DeriveAll(ds repr.Dataset) repr.Dataset {
	out := repr.Dataset{
		Records:      make([]repr.JobRecord, len(ds.Records)),
		ExtraColumns: ds.ExtraColumns,
	}
	for i := range ds.Records {
		out.Records[i] = Derive(ds.Records[i])
	}
	return out
}

// Time from submission to start.  A start before the submit time is a clock or export problem,
// not a negative wait.

func waitSeconds(r repr.JobRecord) mo.Option[float64] {
	submit, sok := r.SubmitTime.Get()
	start, tok := r.StartTime.Get()
	if !sok || !tok {
		return mo.None[float64]()
	}
	wait := start.Sub(submit).Seconds()
	if wait < 0 {
		return mo.None[float64]()
	}
	return mo.Some(wait)
}

// Allocated core-seconds.  Zero is absent, efficiency is undefined for it.

func coreSeconds(r repr.JobRecord) mo.Option[float64] {
	elapsed, eok := r.ElapsedSeconds.Get()
	cpus, cok := r.RequestedCPUs.Get()
	if !eok || !cok {
		return mo.None[float64]()
	}
	core := float64(elapsed) * float64(cpus)
	if core <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(core)
}

// CPU time over core-seconds.  Not clamped: accounting rounding and hyperthreading can take it
// above 1.

func efficiency(cpuTime mo.Option[int64], core mo.Option[float64]) mo.Option[float64] {
	c, cok := cpuTime.Get()
	k, kok := core.Get()
	if !cok || !kok || k <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(float64(c) / k)
}

// A job submitted to several partitions ("normal,accel") is charged to the first.

func mainPartition(p mo.Option[string]) mo.Option[string] {
	s, ok := p.Get()
	if !ok {
		return mo.None[string]()
	}
	first, _, _ := strings.Cut(s, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return mo.None[string]()
	}
	return mo.Some(first)
}
