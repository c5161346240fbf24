package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"jobclean/repr"
	"jobclean/source"
	"jobclean/state"
)

func testDataset() repr.Dataset {
	return repr.Dataset{
		Records: []repr.JobRecord{
			{
				Era:            repr.EraCurrent,
				JobID:          mo.Some("5001"),
				JobName:        mo.Some(`say "hi", then|quit`),
				StartTime:      mo.Some(time.Date(2024, 8, 5, 9, 1, 8, 0, time.UTC)),
				ElapsedSeconds: mo.Some[int64](3600),
				Efficiency:     mo.Some(1.25),
				State:          mo.Some(state.Completed),
				JobNameGroup:   "other",
				Extra:          map[string]string{"Cluster": "fox"},
			},
			{
				Era:          repr.EraLegacy,
				JobNameGroup: "unknown",
			},
		},
		ExtraColumns: []string{"Cluster"},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "job_id,job_name,user_id,"))
	assert.True(t, strings.HasSuffix(lines[0], ",era,Cluster"))

	back, err := source.ReadCanonical(&buf, "x")
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, ds.ExtraColumns, back.ExtraColumns)
	for i := range ds.Records {
		for _, c := range repr.Columns {
			assert.Equal(t, c.Get(&ds.Records[i]), c.Get(&back.Records[i]), c.Name)
		}
	}
	assert.Equal(t, "fox", back.Records[0].Extra["Cluster"])
}

func TestFreeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFreeCSV(&buf, testDataset()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "job_id=5001")
	assert.Contains(t, lines[0], "Cluster=fox")
	assert.NotContains(t, lines[0], "user_id=")
	// Absent values elided: only the always-present columns remain
	assert.Equal(t, "job_name_group=unknown,era=legacy", lines[1])
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testDataset()))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "5001", out[0]["job_id"])
	assert.Equal(t, `say "hi", then|quit`, out[0]["job_name"])
	assert.Equal(t, 3600.0, out[0]["elapsed_seconds"])
	assert.Equal(t, 1.25, out[0]["efficiency"])
	assert.Equal(t, "2024-08-05T09:01:08Z", out[0]["start_time"])
	assert.Equal(t, "fox", out[0]["Cluster"])
	assert.Nil(t, out[1]["job_id"])
	assert.Contains(t, out[1], "job_id")
	assert.NotContains(t, out[1], "Cluster")
	assert.Len(t, out[1], len(repr.Columns))

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, repr.Dataset{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "out.json")
	f := &File{Filename: fn, Format: FormatJSON}
	require.NoError(t, f.Write(context.Background(), uuid.Nil, testDataset()))
	bs, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.True(t, json.Valid(bs))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var stdout bytes.Buffer
	f = &File{Filename: "-", Format: FormatCSV, Stdout: &stdout}
	require.NoError(t, f.Write(context.Background(), uuid.Nil, testDataset()))
	assert.Equal(t, "stdout", f.Name())
	assert.True(t, strings.HasPrefix(stdout.String(), "job_id,"))

	f = &File{Filename: filepath.Join(dir, "nonesuch", "x.csv")}
	assert.Error(t, f.Write(context.Background(), uuid.Nil, testDataset()))
}

// The temporary file goes next to the target, also for a bare file name.
func TestFileSinkRelative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	t.Chdir(dir)
	for _, fn := range []string{"out.csv", filepath.Join("sub", "out.csv")} {
		f := &File{Filename: fn, Format: FormatCSV}
		require.NoError(t, f.Write(context.Background(), uuid.Nil, testDataset()), fn)
		bs, err := os.ReadFile(filepath.Join(dir, fn))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(bs), "job_id,"))
		entries, err := os.ReadDir(filepath.Dir(filepath.Join(dir, fn)))
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".jobclean-"), e.Name())
		}
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	_, err = ParseFormat("parquet")
	assert.Error(t, err)
}

type fakeDB struct {
	execs   []string
	table   pgx.Identifier
	columns []string
	rows    [][]any
	fail    error
}

func (db *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) CopyFrom(
	_ context.Context,
	tableName pgx.Identifier,
	columnNames []string,
	rowSrc pgx.CopyFromSource,
) (int64, error) {
	if db.fail != nil {
		return 0, db.fail
	}
	db.table = tableName
	db.columns = columnNames
	for rowSrc.Next() {
		vals, err := rowSrc.Values()
		if err != nil {
			return 0, err
		}
		db.rows = append(db.rows, vals)
	}
	return int64(len(db.rows)), rowSrc.Err()
}

func TestPostgres(t *testing.T) {
	db := new(fakeDB)
	runID := uuid.New()
	p := &Postgres{DB: db, Table: "acct.jobs"}
	require.NoError(t, p.Write(context.Background(), runID, testDataset()))

	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], `CREATE TABLE IF NOT EXISTS "acct"."jobs"`)
	assert.Contains(t, db.execs[0], `"wait_seconds" double precision`)
	assert.Contains(t, db.execs[0], `"start_time" timestamptz`)
	assert.Equal(t, pgx.Identifier{"acct", "jobs"}, db.table)
	assert.Equal(t, "run_id", db.columns[0])
	assert.Equal(t, "extra", db.columns[len(db.columns)-1])

	require.Len(t, db.rows, 2)
	row := db.rows[0]
	require.Len(t, row, len(db.columns))
	assert.Equal(t, [16]byte(runID), row[0])
	assert.Equal(t, "5001", row[1])
	assert.Equal(t, map[string]string{"Cluster": "fox"}, row[len(row)-1])
	assert.Nil(t, db.rows[1][1])
	assert.Nil(t, db.rows[1][len(row)-1])

	db = &fakeDB{fail: errors.New("connection reset")}
	p = &Postgres{DB: db}
	err := p.Write(context.Background(), runID, testDataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs")
}

type fakeProducer struct {
	records []*kgo.Record
	calls   int
	fail    error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.calls++
	var results kgo.ProduceResults
	for _, r := range rs {
		copied := *r
		f.records = append(f.records, &copied)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.fail})
	}
	return results
}

func TestKafka(t *testing.T) {
	prod := new(fakeProducer)
	runID := uuid.New()
	k := &Kafka{Producer: prod}
	require.NoError(t, k.Write(context.Background(), runID, testDataset()))
	require.Len(t, prod.records, 2)
	assert.Equal(t, 1, prod.calls)

	rec := prod.records[0]
	assert.Equal(t, DefaultTopic, rec.Topic)
	assert.Equal(t, []byte("5001"), rec.Key)
	assert.Nil(t, prod.records[1].Key)
	var obj map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &obj))
	assert.Equal(t, "5001", obj["job_id"])
	headers := make(map[string]string)
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, runID.String(), headers["run-id"])
	assert.Equal(t, "current", headers["era"])

	// Batching
	var big repr.Dataset
	for range 1234 {
		big.Records = append(big.Records, repr.JobRecord{JobID: mo.Some("1")})
	}
	prod = new(fakeProducer)
	k = &Kafka{Producer: prod, Topic: "t"}
	require.NoError(t, k.Write(context.Background(), runID, big))
	assert.Equal(t, 3, prod.calls)
	assert.Len(t, prod.records, 1234)

	prod = &fakeProducer{fail: errors.New("broker down")}
	k = &Kafka{Producer: prod}
	assert.Error(t, k.Write(context.Background(), runID, testDataset()))
}
