// Destinations for a finished dataset.  A sink receives the whole batch at once; none of them
// keeps state between runs.

package sink

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"jobclean/repr"
)

// runID identifies the batch; sinks that can record it do.

type Sink interface {
	Write(ctx context.Context, runID uuid.UUID, ds repr.Dataset) error

	// For messages
	Name() string
}

// Canonical columns followed by the dataset's extra columns.

func header(ds repr.Dataset) []string {
	return append(repr.ColumnNames(), ds.ExtraColumns...)
}

// One record as a JSON object: canonical columns in order with their natural JSON types, absent
// values as null, and extra columns last as strings (omitted where the record has none).  This is
// the record format of both the JSON and the Kafka sinks.

func appendRecordJSON(buf []byte, r *repr.JobRecord, extra []string) []byte {
	buf = append(buf, '{')
	for i := range repr.Columns {
		c := &repr.Columns[i]
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendStringJSON(buf, c.Name)
		buf = append(buf, ':')
		buf = appendValueJSON(buf, c.Value(r))
	}
	for _, name := range extra {
		if v, found := r.Extra[name]; found {
			buf = append(buf, ',')
			buf = appendStringJSON(buf, name)
			buf = append(buf, ':')
			buf = appendStringJSON(buf, v)
		}
	}
	return append(buf, '}')
}

func appendValueJSON(buf []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, "null"...)
	case string:
		return appendStringJSON(buf, x)
	case int64:
		return strconv.AppendInt(buf, x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return append(buf, "null"...)
		}
		return strconv.AppendFloat(buf, x, 'g', -1, 64)
	case time.Time:
		buf = append(buf, '"')
		buf = x.AppendFormat(buf, repr.TimeLayout)
		return append(buf, '"')
	default:
		panic("Unexpected column value type")
	}
}

func appendStringJSON(buf []byte, s string) []byte {
	bs, _ := json.Marshal(s)
	return append(buf, bs...)
}
