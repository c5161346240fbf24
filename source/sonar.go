package source

import (
	"fmt"
	"io"

	"github.com/NordicHPC/sonar/util/formats/newfmt"

	"jobclean/repr"
	"jobclean/slurmfmt"
)

// Slurm job data as collected by Sonar and sent as JSON job envelopes.  The envelope fields are
// rendered into the current era's column vocabulary so that the same conversions apply; the
// Table's era is EraSonar.
//
// Sonar reports memory and disk sizes in kilobytes and the time limit in minutes.  Envelopes that
// carry errors, or carry neither errors nor data, are skipped and counted in Repaired.

var SonarColumns = []string{
	"JobID", "JobName", "User", "Partition", "Account",
	"Submit", "Start", "End", "Elapsed", "TimeLimit",
	"UserCPU", "SystemCPU", "TotalCPU",
	"NCPUS", "NNODES", "ReqMem", "AllocTRES",
	"AveRSS", "MaxRSS", "AveDiskRead", "AveDiskWrite",
	"State", "ExitCode",
}

func ReadSonar(input io.Reader, name string) (*Table, error) {
	t := &Table{Name: name, Era: repr.EraSonar, Header: SonarColumns}
	err := newfmt.ConsumeJSONJobs(input, false, func(r *newfmt.JobsEnvelope) {
		if r.Errors != nil || r.Data == nil {
			t.Repaired++
			return
		}
		for i := range r.Data.Attributes.SlurmJobs {
			job := &r.Data.Attributes.SlurmJobs[i]
			id := fmt.Sprint(job.JobID)
			if job.JobStep != "" {
				id += "." + job.JobStep
			}
			timelimit := ""
			if job.Timelimit >= newfmt.ExtendedUintBase {
				minutes, _ := job.Timelimit.ToUint()
				timelimit = slurmfmt.FormatDuration(int64(minutes) * 60)
			}
			row := []string{
				id,
				job.JobName,
				job.UserName,
				job.Partition,
				job.Account,
				string(job.SubmitTime),
				string(job.Start),
				string(job.End),
				"", // Elapsed
				timelimit,
				"", "", "", // UserCPU, SystemCPU, TotalCPU
				fmt.Sprint(job.ReqCPUS),
				fmt.Sprint(job.ReqNodes),
				fmt.Sprint(job.ReqMemoryPerNode) + "Kn",
				"",             // AllocTRES
				"", "", "", "", // AveRSS, MaxRSS, AveDiskRead, AveDiskWrite
				string(job.JobState),
				fmt.Sprint(job.ExitCode),
			}
			if sacct := job.Sacct; sacct != nil {
				row[8] = slurmfmt.FormatDuration(int64(sacct.ElapsedRaw))
				row[10] = slurmfmt.FormatDuration(int64(sacct.UserCPU))
				row[11] = slurmfmt.FormatDuration(int64(sacct.SystemCPU))
				row[12] = slurmfmt.FormatDuration(int64(sacct.UserCPU + sacct.SystemCPU))
				row[16] = string(sacct.AllocTRES)
				row[17] = fmt.Sprint(sacct.AveRSS) + "K"
				row[18] = fmt.Sprint(sacct.MaxRSS) + "K"
				row[19] = fmt.Sprint(sacct.AveDiskRead) + "K"
				row[20] = fmt.Sprint(sacct.AveDiskWrite) + "K"
			}
			t.Rows = append(t.Rows, row)
		}
	})
	if err != nil {
		return nil, &FormatError{Name: name, Msg: err.Error()}
	}
	return t, nil
}
