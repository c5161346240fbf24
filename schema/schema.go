// Schema reconciliation between the export eras, and conversion of raw rows to job records.
//
// A Schema names, for one era, how raw header names map onto the input vocabulary the converter
// knows (the names of the `sacct` fields: JobID, Submit, NCPUS, ...), which of those must be
// present, and the few era-specific interpretation rules.  Columns the schema does not list are
// never read, even if a file happens to have them.

package schema

import (
	"maps"
	"slices"

	"jobclean/repr"
	"jobclean/slurmfmt"
	"jobclean/state"
)

type ColumnSpec struct {
	Name     string   // input vocabulary name
	Aliases  []string // tried in order after Name; first match wins
	Required bool
}

type Schema struct {
	Era     repr.Era
	Renames map[string]string // raw header name -> input vocabulary name, applied first
	Columns []ColumnSpec
	States  state.Translator

	// TimeLimit is an integer number of minutes rather than a duration string.
	TimeLimitMinutes bool

	// Without an Elapsed column, compute it as End - Start.
	DeriveElapsed bool

	// CPU and node counts missing from NCPUS/NNODES come from this key=value list, if listed in
	// Columns.
	ResourceKeys slurmfmt.ResourceKeys
}

// The names of the input vocabulary.  AllocTRES is the allocation list of either era.

const (
	fJobID = iota
	fJobName
	fUID
	fPartition
	fAccount
	fSubmit
	fStart
	fEnd
	fElapsed
	fTimeLimit
	fUserCPU
	fSystemCPU
	fTotalCPU
	fCPUTime
	fNCPUS
	fNNODES
	fNTASKS
	fReqMem
	fAveRSS
	fMaxRSS
	fAveDiskRead
	fMaxDiskRead
	fAveDiskWrite
	fMaxDiskWrite
	fAvePages
	fMaxPages
	fState
	fExitCode
	fAllocTRES
	numFields
)

var inputNames = [numFields]string{
	"JobID", "JobName", "UID", "Partition", "Account",
	"Submit", "Start", "End", "Elapsed", "TimeLimit",
	"UserCPU", "SystemCPU", "TotalCPU", "CPUTime",
	"NCPUS", "NNODES", "NTASKS", "ReqMem",
	"AveRSS", "MaxRSS", "AveDiskRead", "MaxDiskRead", "AveDiskWrite", "MaxDiskWrite",
	"AvePages", "MaxPages", "State", "ExitCode", "AllocTRES",
}

// Canonical output column charged with a soft failure in each input column.
var failureColumn = [numFields]string{
	"job_id", "job_name", "user_id", "partition", "account",
	"submit_time", "start_time", "end_time", "elapsed_seconds", "time_limit",
	"user_cpu_seconds", "system_cpu_seconds", "total_cpu_seconds", "cpu_time_seconds",
	"requested_cpus", "requested_nodes", "requested_tasks", "requested_memory_mb",
	"ave_rss_mb", "max_rss_mb", "ave_disk_read_mb", "max_disk_read_mb",
	"ave_disk_write_mb", "max_disk_write_mb",
	"ave_pages", "max_pages", "state", "exit_code", "requested_cpus",
}

func InputNames() []string {
	return slices.Clone(inputNames[:])
}

func inputIndex(name string) int {
	return slices.Index(inputNames[:], name)
}

// Legacy era: the slurmdbd job table dump of the old cluster (2018-2021).  The dump has no usage
// columns, so those are optional; CPUTime and ReqMem are never read since the dump's columns of
// similar name do not mean the same thing.

func LegacySchema() *Schema {
	return &Schema{
		Era: repr.EraLegacy,
		Renames: map[string]string{
			"id_job":                     "JobID",
			"job_name":                   "JobName",
			"id_user":                    "UID",
			"partition":                  "Partition",
			"account":                    "Account",
			"from_unixtime(time_submit)": "Submit",
			"from_unixtime(time_start)":  "Start",
			"from_unixtime(time_end)":    "End",
			"timelimit":                  "TimeLimit",
			"state":                      "State",
			"exit_code":                  "ExitCode",
			"tres_alloc":                 "AllocTRES",
		},
		Columns: []ColumnSpec{
			{Name: "JobID", Required: true},
			{Name: "JobName", Required: true},
			{Name: "UID", Required: true},
			{Name: "Partition", Required: true},
			{Name: "Account", Required: true},
			{Name: "Submit", Aliases: []string{"time_submit"}, Required: true},
			{Name: "Start", Aliases: []string{"time_start"}, Required: true},
			{Name: "End", Aliases: []string{"time_end"}, Required: true},
			{Name: "TimeLimit", Required: true},
			{Name: "State", Required: true},
			{Name: "ExitCode", Required: true},
			{Name: "AllocTRES", Required: true},
			{Name: "UserCPU"},
			{Name: "SystemCPU"},
			{Name: "TotalCPU"},
			{Name: "NTASKS"},
			{Name: "AveRSS"},
			{Name: "MaxRSS"},
			{Name: "AveDiskRead"},
			{Name: "MaxDiskRead"},
			{Name: "AveDiskWrite"},
			{Name: "MaxDiskWrite"},
			{Name: "AvePages"},
			{Name: "MaxPages"},
		},
		States:           state.NewCodeTranslator(state.DefaultCodes()),
		TimeLimitMinutes: true,
		DeriveElapsed:    true,
		ResourceKeys:     slurmfmt.TRESIdKeys,
	}
}

// Current era: `sacct -P` on the new cluster (2021-).

func CurrentSchema() *Schema {
	s := &Schema{
		Era:          repr.EraCurrent,
		Renames:      map[string]string{},
		States:       state.NewTextTranslator(state.All()),
		ResourceKeys: slurmfmt.TRESNameKeys,
	}
	for _, name := range []string{
		"JobID", "JobName", "UID", "Partition", "Account",
		"Submit", "Start", "End", "Elapsed", "UserCPU",
		"SystemCPU", "TotalCPU", "CPUTime", "NCPUS",
		"ReqMem", "AveRSS", "MaxRSS", "AveDiskRead",
		"MaxDiskRead", "AveDiskWrite", "MaxDiskWrite",
		"AvePages", "MaxPages", "State", "ExitCode",
	} {
		s.Columns = append(s.Columns, ColumnSpec{Name: name, Required: true})
	}
	s.Columns = append(s.Columns,
		ColumnSpec{Name: "NNODES", Aliases: []string{"NNodes", "Nnodes", "nnodes"}},
		ColumnSpec{Name: "NTASKS", Aliases: []string{"NTasks", "Ntasks", "ntasks"}},
		ColumnSpec{Name: "TimeLimit", Aliases: []string{"Timelimit", "TIMELIMIT", "timelimit", "time_limit"}},
		ColumnSpec{Name: "AllocTRES"},
	)
	return s
}

// Sonar job envelopes, as rendered by source.ReadSonar.

func SonarSchema() *Schema {
	s := &Schema{
		Era:          repr.EraSonar,
		Renames:      map[string]string{"User": "UID"},
		States:       state.NewTextTranslator(state.All()),
		ResourceKeys: slurmfmt.TRESNameKeys,
	}
	for _, name := range []string{
		"JobID", "JobName", "UID", "Partition", "Account",
		"Submit", "Start", "End", "Elapsed", "TimeLimit",
		"UserCPU", "SystemCPU", "TotalCPU",
		"NCPUS", "NNODES", "ReqMem", "AllocTRES",
		"AveRSS", "MaxRSS", "AveDiskRead", "AveDiskWrite",
		"State", "ExitCode",
	} {
		s.Columns = append(s.Columns, ColumnSpec{Name: name, Required: name == "JobID"})
	}
	return s
}

func ForEra(era repr.Era) *Schema {
	switch era {
	case repr.EraLegacy:
		return LegacySchema()
	case repr.EraCurrent:
		return CurrentSchema()
	case repr.EraSonar:
		return SonarSchema()
	}
	return nil
}

func (s *Schema) clone() *Schema {
	c := *s
	c.Renames = maps.Clone(s.Renames)
	c.Columns = slices.Clone(s.Columns)
	return &c
}
