package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobclean/repr"
)

// The part of *pgx.Conn the sink uses.

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(
		ctx context.Context,
		tableName pgx.Identifier,
		columnNames []string,
		rowSrc pgx.CopyFromSource,
	) (int64, error)
}

const DefaultTable = "jobs"

// Appends the batch to a table, creating the table if it does not exist.  Every row carries the
// run id; extra columns go into a jsonb column `extra`.  Rows are appended, never updated: the
// table is a destination, re-running a batch adds a second copy with a new run id.

type Postgres struct {
	DB    DB
	Table string // may be schema-qualified, "jobs" if ""
}

// One connection for the run.

func ConnectPostgres(ctx context.Context, uri string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("Unable to connect to database\n%w", err)
	}
	return conn, nil
}

func (p *Postgres) Name() string {
	return "postgres:" + p.table()
}

func (p *Postgres) table() string {
	if p.Table == "" {
		return DefaultTable
	}
	return p.Table
}

func (p *Postgres) identifier() pgx.Identifier {
	return pgx.Identifier(strings.Split(p.table(), "."))
}

var sqlTypes = map[repr.Kind]string{
	repr.KindString: "text",
	repr.KindInt:    "bigint",
	repr.KindFloat:  "double precision",
	repr.KindTime:   "timestamptz",
}

func CreateTableSQL(table pgx.Identifier) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table.Sanitize())
	b.WriteString(" (\n  run_id uuid NOT NULL")
	for _, c := range repr.Columns {
		b.WriteString(",\n  ")
		b.WriteString(pgx.Identifier{c.Name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(sqlTypes[c.Kind])
	}
	b.WriteString(",\n  extra jsonb\n)")
	return b.String()
}

func copyColumns() []string {
	cols := []string{"run_id"}
	cols = append(cols, repr.ColumnNames()...)
	return append(cols, "extra")
}

func (p *Postgres) Write(ctx context.Context, runID uuid.UUID, ds repr.Dataset) error {
	table := p.identifier()
	if _, err := p.DB.Exec(ctx, CreateTableSQL(table)); err != nil {
		return fmt.Errorf("Failed to create table %s\n%w", p.table(), err)
	}
	id := [16]byte(runID)
	n, err := p.DB.CopyFrom(
		ctx,
		table,
		copyColumns(),
		pgx.CopyFromSlice(len(ds.Records), func(i int) ([]any, error) {
			r := &ds.Records[i]
			row := make([]any, 0, len(repr.Columns)+2)
			row = append(row, id)
			for j := range repr.Columns {
				row = append(row, repr.Columns[j].Value(r))
			}
			if len(r.Extra) > 0 {
				row = append(row, r.Extra)
			} else {
				row = append(row, nil)
			}
			return row, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("Failed to copy records into %s\n%w", p.table(), err)
	}
	if n != int64(len(ds.Records)) {
		return fmt.Errorf("Copied %d of %d records into %s", n, len(ds.Records), p.table())
	}
	return nil
}
