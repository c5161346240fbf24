package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobclean/repr"
	"jobclean/schema"
	"jobclean/sink"
	"jobclean/status"
)

const (
	legacyFixture  = "../source/testdata/legacy.csv"
	currentFixture = "../source/testdata/current.txt"
)

type memorySink struct {
	name   string
	fail   error
	writes int
	runID  uuid.UUID
	ds     repr.Dataset
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Write(_ context.Context, runID uuid.UUID, ds repr.Dataset) error {
	m.writes++
	if m.fail != nil {
		return m.fail
	}
	m.runID = runID
	m.ds = ds
	return nil
}

func quietLog() status.Logger {
	return status.New(status.LogLevelError, nil)
}

func TestRun(t *testing.T) {
	out := &memorySink{name: "mem"}
	cfg := &Config{
		Inputs: []Input{
			LegacyInput(legacyFixture, ""),
			{Kind: KindCurrent, Path: currentFixture},
		},
		Sinks: []sink.Sink{out},
		Log:   quietLog(),
	}
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, res.RunID, out.runID)
	assert.Equal(t, 1, out.writes)
	require.Equal(t, 7, res.Dataset.Len())
	assert.Equal(t, res.Dataset.Len(), out.ds.Len())
	require.Len(t, res.Reports, 2)
	assert.Equal(t, repr.EraLegacy, res.Reports[0].Era)
	assert.Equal(t, repr.EraCurrent, res.Reports[1].Era)

	assert.Equal(t, "1001", res.Dataset.Records[0].JobID.MustGet())
	seenAbsent := false
	for _, r := range res.Dataset.Records {
		if r.StartTime.IsAbsent() {
			seenAbsent = true
		} else {
			assert.False(t, seenAbsent, "start times out of order")
		}
		assert.NotEmpty(t, r.JobNameGroup)
	}
}

func TestRunKeepsRunID(t *testing.T) {
	id := uuid.New()
	out := &memorySink{name: "mem"}
	res, err := Run(context.Background(), &Config{
		Inputs: []Input{{Kind: KindCurrent, Path: currentFixture}},
		Sinks:  []sink.Sink{out},
		RunID:  id,
		Options: schema.Options{
			DropSteps: true,
		},
		Log: quietLog(),
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.RunID)
	assert.Equal(t, id, out.runID)
	assert.Equal(t, 3, res.Dataset.Len())
	assert.Equal(t, 1, res.Reports[0].DroppedSteps)
}

func TestRunSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("JobID|State\n1|COMPLETED\n"), 0644))

	out := &memorySink{name: "mem"}
	_, err := Run(context.Background(), &Config{
		Inputs: []Input{
			LegacyInput(legacyFixture, ""),
			{Kind: KindCurrent, Path: bad},
		},
		Sinks: []sink.Sink{out},
		Log:   quietLog(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrSchemaMismatch))
	var merr *schema.MismatchError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, repr.EraCurrent, merr.Era)
	assert.Equal(t, 0, out.writes)
}

func TestRunSinkFailure(t *testing.T) {
	broken := &memorySink{name: "broken", fail: errors.New("disk full")}
	good := &memorySink{name: "good"}
	res, err := Run(context.Background(), &Config{
		Inputs: []Input{LegacyInput(legacyFixture, "")},
		Sinks:  []sink.Sink{broken, good},
		Log:    quietLog(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.NotNil(t, res)
	assert.Equal(t, 1, good.writes)
	assert.Equal(t, 3, good.ds.Len())
}

func TestRunCanonical(t *testing.T) {
	first, err := Run(context.Background(), &Config{
		Inputs: []Input{LegacyInput(legacyFixture, "")},
		Log:    quietLog(),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sink.WriteCSV(&buf, first.Dataset))
	fn := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, os.WriteFile(fn, buf.Bytes(), 0644))

	second, err := Run(context.Background(), &Config{
		Inputs: []Input{
			{Kind: KindCanonical, Path: fn},
			{Kind: KindCurrent, Path: currentFixture},
		},
		Log: quietLog(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, second.Dataset.Len())
	// Only the raw input has a report
	assert.Len(t, second.Reports, 1)
	for i, c := range repr.Columns {
		assert.Equal(t, c.Get(&first.Dataset.Records[0]), c.Get(&second.Dataset.Records[0]), repr.Columns[i].Name)
	}
}

func TestRunMissingFile(t *testing.T) {
	_, err := Run(context.Background(), &Config{
		Inputs: []Input{{Kind: KindSonar, Path: filepath.Join(t.TempDir(), "nonesuch.json")}},
		Log:    quietLog(),
	})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	err := (&Config{}).Validate()
	assert.Error(t, err)

	err = (&Config{Inputs: []Input{{Kind: "parquet", Path: "x"}, {Kind: KindSonar}}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
	assert.Contains(t, err.Error(), "no file name")
}

func TestInputKinds(t *testing.T) {
	assert.Equal(t, KindLegacyXLSX, LegacyInput("dump.XLSX", "Sheet2").Kind)
	assert.Equal(t, "Sheet2", LegacyInput("dump.xlsx", "Sheet2").Sheet)
	assert.Equal(t, KindLegacyCSV, LegacyInput("dump.csv", "Sheet2").Kind)
	assert.Equal(t, "", LegacyInput("dump.csv", "Sheet2").Sheet)

	k, err := ParseKind("legacy")
	require.NoError(t, err)
	assert.Equal(t, KindLegacyCSV, k)
	_, err = ParseKind("")
	assert.Error(t, err)

	assert.Equal(t, repr.EraSonar, KindSonar.Era())
	assert.Equal(t, repr.Era(""), KindCanonical.Era())
}
