package repr

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"jobclean/state"
)

// A canonical output column.  Get renders the value, "" for absent; Set parses a rendered value
// back (absent for "" or anything unparseable), which is how canonical files are re-read for
// merging.

type Column struct {
	Name  string
	Kind  Kind
	Get   func(r *JobRecord) string
	Set   func(r *JobRecord, s string)
	Value func(r *JobRecord) any // nil, string, int64, float64 or time.Time
}

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
)

// The canonical column set, in output order.  This is the same for every era.
var Columns = []Column{
	strCol("job_id", func(r *JobRecord) *mo.Option[string] { return &r.JobID }),
	strCol("job_name", func(r *JobRecord) *mo.Option[string] { return &r.JobName }),
	strCol("user_id", func(r *JobRecord) *mo.Option[string] { return &r.UserID }),
	strCol("partition", func(r *JobRecord) *mo.Option[string] { return &r.Partition }),
	strCol("account", func(r *JobRecord) *mo.Option[string] { return &r.Account }),
	timeCol("submit_time", func(r *JobRecord) *mo.Option[time.Time] { return &r.SubmitTime }),
	timeCol("start_time", func(r *JobRecord) *mo.Option[time.Time] { return &r.StartTime }),
	timeCol("end_time", func(r *JobRecord) *mo.Option[time.Time] { return &r.EndTime }),
	intCol("time_limit", func(r *JobRecord) *mo.Option[int64] { return &r.TimeLimit }),
	intCol("elapsed_seconds", func(r *JobRecord) *mo.Option[int64] { return &r.ElapsedSeconds }),
	floatCol("user_cpu_seconds", func(r *JobRecord) *mo.Option[float64] { return &r.UserCPUSeconds }),
	floatCol("system_cpu_seconds", func(r *JobRecord) *mo.Option[float64] { return &r.SystemCPUSeconds }),
	floatCol("total_cpu_seconds", func(r *JobRecord) *mo.Option[float64] { return &r.TotalCPUSeconds }),
	intCol("cpu_time_seconds", func(r *JobRecord) *mo.Option[int64] { return &r.CPUTimeSeconds }),
	intCol("requested_cpus", func(r *JobRecord) *mo.Option[int64] { return &r.RequestedCPUs }),
	intCol("requested_tasks", func(r *JobRecord) *mo.Option[int64] { return &r.RequestedTasks }),
	intCol("requested_nodes", func(r *JobRecord) *mo.Option[int64] { return &r.RequestedNodes }),
	floatCol("requested_memory_mb", func(r *JobRecord) *mo.Option[float64] { return &r.RequestedMemoryMB }),
	floatCol("ave_rss_mb", func(r *JobRecord) *mo.Option[float64] { return &r.AveRSSMB }),
	floatCol("max_rss_mb", func(r *JobRecord) *mo.Option[float64] { return &r.MaxRSSMB }),
	floatCol("ave_disk_read_mb", func(r *JobRecord) *mo.Option[float64] { return &r.AveDiskReadMB }),
	floatCol("max_disk_read_mb", func(r *JobRecord) *mo.Option[float64] { return &r.MaxDiskReadMB }),
	floatCol("ave_disk_write_mb", func(r *JobRecord) *mo.Option[float64] { return &r.AveDiskWriteMB }),
	floatCol("max_disk_write_mb", func(r *JobRecord) *mo.Option[float64] { return &r.MaxDiskWriteMB }),
	intCol("ave_pages", func(r *JobRecord) *mo.Option[int64] { return &r.AvePages }),
	intCol("max_pages", func(r *JobRecord) *mo.Option[int64] { return &r.MaxPages }),
	{
		Name: "state",
		Kind: KindString,
		Get: func(r *JobRecord) string {
			if s, ok := r.State.Get(); ok {
				return s.String()
			}
			return ""
		},
		Set: func(r *JobRecord, s string) { r.State = state.Parse(strings.TrimSpace(s)) },
		Value: func(r *JobRecord) any {
			if s, ok := r.State.Get(); ok {
				return s.String()
			}
			return nil
		},
	},
	strCol("exit_code", func(r *JobRecord) *mo.Option[string] { return &r.ExitCode }),
	floatCol("wait_seconds", func(r *JobRecord) *mo.Option[float64] { return &r.WaitSeconds }),
	floatCol("core_seconds", func(r *JobRecord) *mo.Option[float64] { return &r.CoreSeconds }),
	floatCol("efficiency", func(r *JobRecord) *mo.Option[float64] { return &r.Efficiency }),
	intCol("year", func(r *JobRecord) *mo.Option[int64] { return &r.Year }),
	intCol("month", func(r *JobRecord) *mo.Option[int64] { return &r.Month }),
	strCol("partition_main", func(r *JobRecord) *mo.Option[string] { return &r.PartitionMain }),
	{
		Name:  "job_name_group",
		Kind:  KindString,
		Get:   func(r *JobRecord) string { return r.JobNameGroup },
		Set:   func(r *JobRecord, s string) { r.JobNameGroup = s },
		Value: func(r *JobRecord) any { return r.JobNameGroup },
	},
	{
		Name:  "era",
		Kind:  KindString,
		Get:   func(r *JobRecord) string { return string(r.Era) },
		Set:   func(r *JobRecord, s string) { r.Era, _ = ParseEra(s) },
		Value: func(r *JobRecord) any { return string(r.Era) },
	},
}

func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup table from column name to column, built once.
var columnIndex = func() map[string]*Column {
	m := make(map[string]*Column, len(Columns))
	for i := range Columns {
		m[Columns[i].Name] = &Columns[i]
	}
	return m
}()

func LookupColumn(name string) (*Column, bool) {
	c, found := columnIndex[name]
	return c, found
}

// Timestamps are written as RFC3339 in whatever zone they were read in.

const TimeLayout = time.RFC3339

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Column constructors, from a field selector.

func strCol(name string, field func(*JobRecord) *mo.Option[string]) Column {
	return Column{
		Name:  name,
		Kind:  KindString,
		Value: value(field),
		Get:   func(r *JobRecord) string { return field(r).OrElse("") },
		Set: func(r *JobRecord, s string) {
			if s == "" {
				*field(r) = mo.None[string]()
			} else {
				*field(r) = mo.Some(s)
			}
		},
	}
}

func timeCol(name string, field func(*JobRecord) *mo.Option[time.Time]) Column {
	return Column{
		Name:  name,
		Kind:  KindTime,
		Value: value(field),
		Get: func(r *JobRecord) string {
			if t, ok := field(r).Get(); ok {
				return t.Format(TimeLayout)
			}
			return ""
		},
		Set: func(r *JobRecord, s string) {
			t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
			if err != nil {
				*field(r) = mo.None[time.Time]()
			} else {
				*field(r) = mo.Some(t)
			}
		},
	}
}

func intCol(name string, field func(*JobRecord) *mo.Option[int64]) Column {
	return Column{
		Name:  name,
		Kind:  KindInt,
		Value: value(field),
		Get: func(r *JobRecord) string {
			if n, ok := field(r).Get(); ok {
				return strconv.FormatInt(n, 10)
			}
			return ""
		},
		Set: func(r *JobRecord, s string) {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil || n < 0 {
				*field(r) = mo.None[int64]()
			} else {
				*field(r) = mo.Some(n)
			}
		},
	}
}

func floatCol(name string, field func(*JobRecord) *mo.Option[float64]) Column {
	return Column{
		Name:  name,
		Kind:  KindFloat,
		Value: value(field),
		Get: func(r *JobRecord) string {
			if x, ok := field(r).Get(); ok {
				return strconv.FormatFloat(x, 'g', -1, 64)
			}
			return ""
		},
		Set: func(r *JobRecord, s string) {
			x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil || x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
				*field(r) = mo.None[float64]()
			} else {
				*field(r) = mo.Some(x)
			}
		},
	}
}

func value[T any](field func(*JobRecord) *mo.Option[T]) func(*JobRecord) any {
	return func(r *JobRecord) any {
		if v, ok := field(r).Get(); ok {
			return v
		}
		return nil
	}
}
