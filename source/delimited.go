package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"jobclean/repr"
)

// Legacy era: comma-separated dump of the accounting database's job table, with a header row.
// Quoting follows RFC 4180.  Rows are fitted to the header; blank rows are dropped.

func ReadLegacyCSV(input io.Reader, name string, enc Encoding) (*Table, error) {
	rdr := csv.NewReader(input)
	rdr.FieldsPerRecord = -1
	rdr.LazyQuotes = true
	t := &Table{Name: name, Era: repr.EraLegacy}
	for {
		fields, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(name, err)
		}
		for i := range fields {
			fields[i] = enc.decode(fields[i])
		}
		if t.Header == nil {
			t.Header = cleanHeader(fields)
			continue
		}
		if blankRow(fields) {
			continue
		}
		row, changed := fitRow(fields, len(t.Header))
		if changed {
			t.Repaired++
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Header == nil {
		return nil, &FormatError{Name: name, Msg: "No header row"}
	}
	return t, nil
}

// Current era: the output of `sacct -P`, fields separated by `|`, first line naming the fields.
// There is no quoting, so a job name containing `|` splits into too many fields.  The excess is
// folded back into the JobName column; any other overlong row is truncated.

const jobNameColumn = "JobName"

func ReadCurrent(input io.Reader, name string, enc Encoding) (*Table, error) {
	scan := bufio.NewScanner(input)
	scan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	t := &Table{Name: name, Era: repr.EraCurrent}
	nameIx := -1
	lineno := 0
	for scan.Scan() {
		lineno++
		line := strings.TrimRight(enc.decode(scan.Text()), "\r")
		if t.Header == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			t.Header = cleanHeader(strings.Split(line, "|"))
			nameIx = t.Column(jobNameColumn)
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if excess := len(fields) - len(t.Header); excess > 0 && nameIx != -1 {
			joined := strings.Join(fields[nameIx:nameIx+excess+1], "|")
			fields = append(append(fields[:nameIx:nameIx], joined), fields[nameIx+excess+1:]...)
			t.Repaired++
		}
		row, changed := fitRow(fields, len(t.Header))
		if changed {
			t.Repaired++
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scan.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &FormatError{Name: name, Line: lineno + 1, Msg: "Line too long"}
		}
		return nil, fmt.Errorf("Failed to read %s\n%w", name, err)
	}
	if t.Header == nil {
		return nil, &FormatError{Name: name, Msg: "No header line"}
	}
	return t, nil
}
