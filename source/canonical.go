package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"jobclean/repr"
)

// Read a file previously written by the canonical CSV sink back into a dataset, for merging.
// Columns are matched by name so column order does not matter; a header name that is not a
// canonical column becomes an extra column.  The header must have job_id.

func ReadCanonical(input io.Reader, name string) (repr.Dataset, error) {
	rdr := csv.NewReader(input)
	rdr.FieldsPerRecord = -1
	header, err := rdr.Read()
	if err == io.EOF {
		return repr.Dataset{}, &FormatError{Name: name, Msg: "No header row"}
	}
	if err != nil {
		return repr.Dataset{}, csvError(name, err)
	}
	header = cleanHeader(header)
	if !slices.Contains(header, "job_id") {
		return repr.Dataset{}, &FormatError{Name: name, Line: 1, Msg: "Not a canonical file: no job_id column"}
	}

	cols := make([]*repr.Column, len(header))
	var extra []string
	for i, h := range header {
		if c, found := repr.LookupColumn(h); found {
			cols[i] = c
		} else if h != "" {
			extra = append(extra, h)
		}
	}
	slices.Sort(extra)

	var ds repr.Dataset
	ds.ExtraColumns = extra
	for {
		fields, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return repr.Dataset{}, csvError(name, err)
		}
		if blankRow(fields) {
			continue
		}
		var r repr.JobRecord
		for i, f := range fields {
			if i >= len(header) {
				break
			}
			if cols[i] != nil {
				cols[i].Set(&r, f)
			} else if header[i] != "" && f != "" {
				if r.Extra == nil {
					r.Extra = make(map[string]string)
				}
				r.Extra[header[i]] = f
			}
		}
		ds.Records = append(ds.Records, r)
	}
	return ds, nil
}

func csvError(name string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &FormatError{Name: name, Line: perr.Line, Msg: perr.Err.Error()}
	}
	return fmt.Errorf("Failed to read %s\n%w", name, err)
}
