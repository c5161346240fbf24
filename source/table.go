// Readers for the raw exports.  A raw export comes out as a Table: a header and rows of strings,
// untouched except for character decoding and the structural repairs documented on each reader.
// All interpretation of the values is left to package schema.
//
// I/O errors are propagated to the caller.  Structural problems that make the input unusable (no
// header, unparseable CSV) are reported as *FormatError, which matches ErrFormat.  Rows that are
// merely short or long are padded or truncated and counted in Table.Repaired.

package source

import (
	"errors"
	"fmt"
	"strings"

	"jobclean/repr"
)

var ErrFormat = errors.New("Malformed input")

type FormatError struct {
	Name string // origin of the input, usually a file name
	Line int    // 1-based, 0 if not known
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// Every row has exactly len(Header) fields.  Tables are not mutated once returned.

type Table struct {
	Name     string
	Era      repr.Era
	Header   []string
	Rows     [][]string
	Repaired int
}

// Index of the named header column, or -1.

func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != -1
}

// Header cells are trimmed; a UTF-8 byte order mark on the first one (spreadsheet exports) is
// removed.

func cleanHeader(fields []string) []string {
	header := make([]string, len(fields))
	for i, f := range fields {
		if i == 0 {
			f = strings.TrimPrefix(f, "\ufeff")
		}
		header[i] = strings.TrimSpace(f)
	}
	return header
}

// Force the row to the header width, returning true if it had to be changed.

func fitRow(fields []string, width int) ([]string, bool) {
	switch {
	case len(fields) == width:
		return fields, false
	case len(fields) > width:
		return fields[:width], true
	default:
		row := make([]string, width)
		copy(row, fields)
		return row, true
	}
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
