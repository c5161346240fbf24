package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"jobclean/repr"
)

// The file formats.

type Format string

const (
	FormatCSV     Format = "csv"
	FormatFreeCSV Format = "freecsv"
	FormatJSON    Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatFreeCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("Unknown output format %q", s)
}

// Canonical CSV: a header row of column names, then one row per record, absent values written as
// empty cells.

func WriteCSV(w io.Writer, ds repr.Dataset) error {
	wr := csv.NewWriter(w)
	hdr := header(ds)
	if err := wr.Write(hdr); err != nil {
		return err
	}
	fields := make([]string, len(hdr))
	for i := range ds.Records {
		r := &ds.Records[i]
		for j := range repr.Columns {
			fields[j] = repr.Columns[j].Get(r)
		}
		for j, name := range ds.ExtraColumns {
			fields[len(repr.Columns)+j] = r.Extra[name]
		}
		if err := wr.Write(fields); err != nil {
			return err
		}
	}
	wr.Flush()
	return wr.Error()
}

// "Free CSV": rows use CSV syntax but each field is `name=value` and absent values are left out,
// so rows are uneven and column order carries no meaning.  A record with nothing to write produces
// no row.

func WriteFreeCSV(w io.Writer, ds repr.Dataset) error {
	wr := csv.NewWriter(w)
	row := make([]string, 0, len(repr.Columns)+len(ds.ExtraColumns))
	for i := range ds.Records {
		r := &ds.Records[i]
		row = row[:0]
		for j := range repr.Columns {
			c := &repr.Columns[j]
			if v := c.Get(r); v != "" {
				row = append(row, c.Name+"="+v)
			}
		}
		for _, name := range ds.ExtraColumns {
			if v := r.Extra[name]; v != "" {
				row = append(row, name+"="+v)
			}
		}
		if len(row) > 0 {
			if err := wr.Write(row); err != nil {
				return err
			}
		}
	}
	wr.Flush()
	return wr.Error()
}

// A JSON array of record objects, one per line.

func WriteJSON(w io.Writer, ds repr.Dataset) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 2048)
	bw.WriteString("[")
	for i := range ds.Records {
		buf = buf[:0]
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
		buf = appendRecordJSON(buf, &ds.Records[i], ds.ExtraColumns)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	if len(ds.Records) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

func Encode(w io.Writer, format Format, ds repr.Dataset) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, ds)
	case FormatFreeCSV:
		return WriteFreeCSV(w, ds)
	case FormatJSON:
		return WriteJSON(w, ds)
	}
	return fmt.Errorf("Unknown output format %q", format)
}

// A file sink writes to a temp file in the target directory and renames it into place when the
// whole dataset has been written, so a failed run never leaves a partial file behind.  Filename
// "" or "-" is stdout.

type File struct {
	Filename string
	Format   Format
	Stdout   io.Writer // for "-", os.Stdout if nil
}

func (f *File) Name() string {
	if f.Filename == "" || f.Filename == "-" {
		return "stdout"
	}
	return f.Filename
}

func (f *File) Write(_ context.Context, _ uuid.UUID, ds repr.Dataset) error {
	if f.Filename == "" || f.Filename == "-" {
		out := f.Stdout
		if out == nil {
			out = os.Stdout
		}
		return Encode(out, f.Format, ds)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Filename), ".jobclean-*")
	if err != nil {
		return fmt.Errorf("Failed to create output for %s\n%w", f.Filename, err)
	}
	// After the rename this fails harmlessly.
	defer os.Remove(tmp.Name())

	err = tmp.Chmod(0o644)
	if err == nil {
		err = Encode(tmp, f.Format, ds)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("Failed to write %s\n%w", f.Filename, err)
	}
	if err := os.Rename(tmp.Name(), f.Filename); err != nil {
		return fmt.Errorf("Failed to write %s\n%w", f.Filename, err)
	}
	return nil
}
