package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jobclean/repr"
	"jobclean/source"
)

type Options struct {
	// Drop job step rows (JobID "123.batch", "123.0").
	DropSteps bool

	// Keep raw columns the schema does not read, in JobRecord.Extra.
	KeepExtra bool

	// Convert rows in this many parallel chunks; 0 or 1 means sequentially.
	Workers int

	// Zone for timestamps that have none, UTC if nil.
	Location *time.Location
}

// Outcome of one normalization.  Failures counts, per canonical output column, values that were
// present in the input but could not be interpreted and so became absent.

type Report struct {
	Era          repr.Era
	Source       string
	Rows         int // rows read
	Records      int // records produced
	DroppedSteps int
	Repaired     int      // rows the reader had to fit to the header
	Synthesized  []string // input columns not in the file, all-absent
	Failures     map[string]int
}

func (r *Report) SoftErrors() int {
	n := 0
	for _, v := range r.Failures {
		n += v
	}
	return n
}

// Do not process tiny tables in parallel.
const minChunk = 256

type Normalizer struct {
	schema *Schema
	opts   Options
}

// The schema is copied, later changes to it do not affect the normalizer.

func New(s *Schema, opts Options) *Normalizer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Normalizer{schema: s.clone(), opts: opts}
}

func (n *Normalizer) Schema() *Schema {
	return n.schema.clone()
}

// Normalize the table into records in the table's row order.  A table missing required columns
// yields a *MismatchError and no records.  Soft failures never cause an error.

func (n *Normalizer) Normalize(t *source.Table) (repr.Dataset, Report, error) {
	rep := Report{
		Era:      n.schema.Era,
		Source:   t.Name,
		Rows:     len(t.Rows),
		Repaired: t.Repaired,
		Failures: make(map[string]int),
	}

	lay, err := n.resolve(t)
	if err != nil {
		return repr.Dataset{}, rep, err
	}
	rep.Synthesized = lay.synthesized

	records := make([]repr.JobRecord, len(t.Rows))
	keep := make([]bool, len(t.Rows))
	chunk := len(t.Rows)
	if n.opts.Workers > 1 {
		chunk = max(minChunk, (len(t.Rows)+n.opts.Workers-1)/n.opts.Workers)
	}
	var g errgroup.Group
	g.SetLimit(n.opts.Workers)
	var parts []*counts
	for lo := 0; lo < len(t.Rows); lo += chunk {
		hi := min(lo+chunk, len(t.Rows))
		c := new(counts)
		parts = append(parts, c)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				keep[i] = n.convert(lay, t.Rows[i], &records[i], c)
			}
			return nil
		})
	}
	g.Wait()

	extra := make(map[string]bool)
	kept := records[:0]
	for i := range records {
		if !keep[i] {
			rep.DroppedSteps++
			continue
		}
		for k := range records[i].Extra {
			extra[k] = true
		}
		kept = append(kept, records[i])
	}
	for _, c := range parts {
		for f, v := range c {
			if v > 0 {
				rep.Failures[failureColumn[f]] += v
			}
		}
	}
	rep.Records = len(kept)

	return repr.Dataset{
		Records:      kept,
		ExtraColumns: slices.Sorted(maps.Keys(extra)),
	}, rep, nil
}

// Where each input column is found in the row, -1 if synthesized or not read.

type layout struct {
	ix          [numFields]int
	extra       []int // header indices for Extra
	header      []string
	synthesized []string
}

func (n *Normalizer) resolve(t *source.Table) (*layout, error) {
	lay := &layout{header: t.Header}
	for i := range lay.ix {
		lay.ix[i] = -1
	}

	// First occurrence of each renamed header name.  The table itself is not touched.
	where := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		name := h
		if r, found := n.schema.Renames[h]; found {
			name = r
		}
		if _, found := where[name]; !found {
			where[name] = i
		}
	}

	consumed := make([]bool, len(t.Header))
	var missing []string
	for _, col := range n.schema.Columns {
		f := inputIndex(col.Name)
		if f == -1 {
			return nil, fmt.Errorf("Schema for %s names unknown column %s", n.schema.Era, col.Name)
		}
		for _, name := range append([]string{col.Name}, col.Aliases...) {
			if i, found := where[name]; found {
				if lay.ix[f] == -1 {
					lay.ix[f] = i
				}
				consumed[i] = true
			}
		}
		if lay.ix[f] == -1 {
			if col.Required {
				missing = append(missing, col.Name)
			} else {
				lay.synthesized = append(lay.synthesized, col.Name)
			}
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, &MismatchError{Era: n.schema.Era, Source: t.Name, Missing: missing}
	}

	if n.opts.KeepExtra {
		for i, h := range t.Header {
			// A raw name equal to a canonical column would shadow it in the output
			if _, clash := repr.LookupColumn(h); !consumed[i] && h != "" && !clash {
				lay.extra = append(lay.extra, i)
			}
		}
	}
	return lay, nil
}

func isStep(jobID string) bool {
	return strings.IndexByte(jobID, '.') != -1
}
