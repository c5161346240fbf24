package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"jobclean/repr"
)

// Legacy era, as a spreadsheet.  Some of the old dumps were only kept as workbooks.  The sheet is
// named by `sheet`, or is the first sheet if `sheet` is "".  Cell values are read as displayed;
// the first row is the header.

func ReadLegacyXLSX(input io.Reader, name, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(input)
	if err != nil {
		return nil, &FormatError{Name: name, Msg: fmt.Sprintf("Not a workbook: %v", err)}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &FormatError{Name: name, Msg: "Workbook has no sheets"}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &FormatError{Name: name, Msg: fmt.Sprintf("Sheet %s: %v", sheet, err)}
	}

	t := &Table{Name: name, Era: repr.EraLegacy}
	for _, fields := range rows {
		if t.Header == nil {
			if blankRow(fields) {
				continue
			}
			t.Header = cleanHeader(fields)
			continue
		}
		if blankRow(fields) {
			continue
		}
		// Trailing empty cells are not returned by GetRows, so short rows are normal here and
		// are not counted as repairs.
		row, _ := fitRow(fields, len(t.Header))
		if len(fields) > len(t.Header) {
			t.Repaired++
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Header == nil {
		return nil, &FormatError{Name: name, Msg: fmt.Sprintf("Sheet %s is empty", sheet)}
	}
	return t, nil
}
