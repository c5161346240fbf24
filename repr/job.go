// The canonical job record and dataset.
//
// Every optional attribute is an mo.Option; absent is never conflated with zero or "".  A record
// is built once by the schema normalizer, then derived and merged by value: nothing downstream
// mutates the raw rows or a record that has been handed on.

package repr

import (
	"time"

	"github.com/samber/mo"

	"jobclean/state"
)

// The export format a record came from.

type Era string

const (
	EraLegacy  Era = "legacy"
	EraCurrent Era = "current"
	EraSonar   Era = "sonar"
)

func ParseEra(s string) (Era, bool) {
	switch Era(s) {
	case EraLegacy, EraCurrent, EraSonar:
		return Era(s), true
	}
	return "", false
}

type JobRecord struct {
	Era Era

	JobID     mo.Option[string]
	UserID    mo.Option[string]
	Partition mo.Option[string]
	Account   mo.Option[string]
	JobName   mo.Option[string]

	SubmitTime mo.Option[time.Time]
	StartTime  mo.Option[time.Time]
	EndTime    mo.Option[time.Time]

	TimeLimit      mo.Option[int64] // seconds
	ElapsedSeconds mo.Option[int64]
	CPUTimeSeconds mo.Option[int64]

	UserCPUSeconds   mo.Option[float64]
	SystemCPUSeconds mo.Option[float64]
	TotalCPUSeconds  mo.Option[float64]

	RequestedCPUs     mo.Option[int64]
	RequestedNodes    mo.Option[int64]
	RequestedTasks    mo.Option[int64]
	RequestedMemoryMB mo.Option[float64]

	AveRSSMB       mo.Option[float64]
	MaxRSSMB       mo.Option[float64]
	AveDiskReadMB  mo.Option[float64]
	MaxDiskReadMB  mo.Option[float64]
	AveDiskWriteMB mo.Option[float64]
	MaxDiskWriteMB mo.Option[float64]
	AvePages       mo.Option[int64]
	MaxPages       mo.Option[int64]

	State    mo.Option[state.State]
	ExitCode mo.Option[string]

	// Derived, see package metrics
	WaitSeconds   mo.Option[float64]
	CoreSeconds   mo.Option[float64]
	Efficiency    mo.Option[float64]
	Year          mo.Option[int64]
	Month         mo.Option[int64]
	PartitionMain mo.Option[string]
	JobNameGroup  string

	// Raw columns outside the canonical schema, only when the normalizer keeps them.  Shared
	// between copies of a record, treat as read-only.
	Extra map[string]string
}

// Records are held by value in the slice; copying a dataset's slice copies the records (but not
// the Extra maps, which are read-only).

type Dataset struct {
	Records []JobRecord

	// Sorted names of all Extra keys present in any record.
	ExtraColumns []string
}

func (ds Dataset) Len() int {
	return len(ds.Records)
}
