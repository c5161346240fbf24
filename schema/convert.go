package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"jobclean/repr"
	"jobclean/slurmfmt"
)

// Soft failures per input column, one array per conversion chunk.
type counts [numFields]int

// Spellings of "no value" in the exports.  These are absent without being failures.
var nullTokens = map[string]bool{
	"":                true,
	"Unknown":         true,
	"None":            true,
	"NaN":             true,
	"nan":             true,
	"NaT":             true,
	"UNLIMITED":       true,
	"Partition_Limit": true,
	"INVALID":         true,
}

// Convert one row into *r.  Returns false if the row is to be dropped.

func (n *Normalizer) convert(lay *layout, row []string, r *repr.JobRecord, c *counts) bool {
	get := func(f int) string {
		if lay.ix[f] == -1 {
			return ""
		}
		return row[lay.ix[f]]
	}
	note := func(f int, present bool) {
		if !present && !nullTokens[strings.TrimSpace(get(f))] {
			c[f]++
		}
	}
	ident := func(f int) mo.Option[string] {
		s := strings.TrimSpace(get(f))
		if nullTokens[s] {
			return mo.None[string]()
		}
		return mo.Some(s)
	}

	r.Era = n.schema.Era
	r.JobID = ident(fJobID)
	if n.opts.DropSteps && isStep(r.JobID.OrElse("")) {
		return false
	}
	r.UserID = ident(fUID)
	r.Partition = ident(fPartition)
	r.Account = ident(fAccount)
	r.ExitCode = ident(fExitCode)
	if name := get(fJobName); name != "" {
		r.JobName = mo.Some(name)
	}

	timestamp := func(f int) mo.Option[time.Time] {
		text := get(f)
		t := slurmfmt.ParseTimestamp(text, n.opts.Location)
		if strings.TrimSpace(text) != "0" {
			note(f, t.IsPresent())
		}
		return t
	}
	r.SubmitTime = timestamp(fSubmit)
	r.StartTime = timestamp(fStart)
	r.EndTime = timestamp(fEnd)

	duration := func(f int) mo.Option[int64] {
		d := slurmfmt.ParseDuration(get(f))
		note(f, d.IsPresent())
		return d
	}
	if lay.ix[fElapsed] != -1 {
		r.ElapsedSeconds = duration(fElapsed)
	} else if n.schema.DeriveElapsed {
		r.ElapsedSeconds = elapsedBetween(r.StartTime, r.EndTime)
	}
	r.CPUTimeSeconds = duration(fCPUTime)
	if n.schema.TimeLimitMinutes {
		m := count(get(fTimeLimit))
		if v, ok := m.Get(); ok && v <= math.MaxInt64/60 {
			r.TimeLimit = mo.Some(v * 60)
		}
		note(fTimeLimit, r.TimeLimit.IsPresent())
	} else {
		r.TimeLimit = duration(fTimeLimit)
	}

	cpuTime := func(f int) mo.Option[float64] {
		d := slurmfmt.ParseCPUTime(get(f))
		note(f, d.IsPresent())
		return d
	}
	r.UserCPUSeconds = cpuTime(fUserCPU)
	r.SystemCPUSeconds = cpuTime(fSystemCPU)
	r.TotalCPUSeconds = cpuTime(fTotalCPU)

	integer := func(f int) mo.Option[int64] {
		v := count(get(f))
		note(f, v.IsPresent())
		return v
	}
	r.RequestedCPUs = integer(fNCPUS)
	r.RequestedNodes = integer(fNNODES)
	r.RequestedTasks = integer(fNTASKS)
	if lay.ix[fAllocTRES] != -1 && (r.RequestedCPUs.IsAbsent() || r.RequestedNodes.IsAbsent()) {
		text := get(fAllocTRES)
		cpus, nodes := slurmfmt.ParseResourceListWith(text, n.schema.ResourceKeys)
		if r.RequestedCPUs.IsAbsent() {
			r.RequestedCPUs = cpus
		}
		if r.RequestedNodes.IsAbsent() {
			r.RequestedNodes = nodes
		}
		note(fAllocTRES, cpus.IsPresent() || nodes.IsPresent())
	}

	r.RequestedMemoryMB = slurmfmt.ParseMemory(get(fReqMem), r.RequestedNodes, r.RequestedCPUs)
	if !zeroRequest(get(fReqMem)) {
		note(fReqMem, r.RequestedMemoryMB.IsPresent())
	}

	size := func(f int) mo.Option[float64] {
		v := slurmfmt.ParseByteSize(get(f))
		note(f, v.IsPresent())
		return v
	}
	r.AveRSSMB = size(fAveRSS)
	r.MaxRSSMB = size(fMaxRSS)
	r.AveDiskReadMB = size(fAveDiskRead)
	r.MaxDiskReadMB = size(fMaxDiskRead)
	r.AveDiskWriteMB = size(fAveDiskWrite)
	r.MaxDiskWriteMB = size(fMaxDiskWrite)
	r.AvePages = integer(fAvePages)
	r.MaxPages = integer(fMaxPages)

	r.State = n.schema.States.Translate(get(fState))
	note(fState, r.State.IsPresent())

	if len(lay.extra) > 0 {
		for _, i := range lay.extra {
			if row[i] == "" {
				continue
			}
			if r.Extra == nil {
				r.Extra = make(map[string]string, len(lay.extra))
			}
			r.Extra[lay.header[i]] = row[i]
		}
	}
	return true
}

// A non-negative integer count.  Spreadsheet round trips turn "4" into "4.0", so integral
// decimals are accepted.

func count(text string) mo.Option[int64] {
	s := strings.TrimSpace(text)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return mo.None[int64]()
		}
		return mo.Some(n)
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || x < 0 || x != math.Trunc(x) || x >= math.MaxInt64 {
		return mo.None[int64]()
	}
	return mo.Some(int64(x))
}

// "0", "0n", "000Gc": no memory was requested, which is not a failure.

func zeroRequest(text string) bool {
	s := strings.TrimSpace(text)
	digits := len(s) - len(strings.TrimLeft(s, "0123456789"))
	return digits > 0 && strings.Trim(s[:digits], "0") == ""
}

func elapsedBetween(start, end mo.Option[time.Time]) mo.Option[int64] {
	s, sok := start.Get()
	e, eok := end.Get()
	if !sok || !eok || e.Before(s) {
		return mo.None[int64]()
	}
	return mo.Some(int64(e.Sub(s) / time.Second))
}
