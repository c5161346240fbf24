package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jobclean/metrics"
	"jobclean/repr"
	"jobclean/schema"
	"jobclean/source"
)

type Kind string

const (
	KindLegacyCSV  Kind = "legacy-csv"
	KindLegacyXLSX Kind = "legacy-xlsx"
	KindCurrent    Kind = "current"
	KindSonar      Kind = "sonar"
	KindCanonical  Kind = "canonical"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLegacyCSV, KindLegacyXLSX, KindCurrent, KindSonar, KindCanonical:
		return k, nil
	case "legacy":
		return KindLegacyCSV, nil
	}
	return "", fmt.Errorf("Unknown input kind %q", s)
}

func (k Kind) Era() repr.Era {
	switch k {
	case KindLegacyCSV, KindLegacyXLSX:
		return repr.EraLegacy
	case KindCurrent:
		return repr.EraCurrent
	case KindSonar:
		return repr.EraSonar
	}
	return ""
}

type Input struct {
	Kind  Kind
	Path  string
	Sheet string // xlsx only
}

// A legacy dump is a workbook or a CSV file, by its extension.

func LegacyInput(path, sheet string) Input {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return Input{Kind: KindLegacyXLSX, Path: path, Sheet: sheet}
	}
	return Input{Kind: KindLegacyCSV, Path: path}
}

func (in Input) Validate() error {
	if in.Path == "" {
		return fmt.Errorf("Input of kind %s has no file name", in.Kind)
	}
	if _, err := ParseKind(string(in.Kind)); err != nil {
		return fmt.Errorf("%s: %w", in.Path, err)
	}
	return nil
}

// Read one input file and bring it to canonical, derived form.  sch is ignored for canonical
// inputs, which are already normalized and have no report.

func ReadInput(
	in Input,
	enc source.Encoding,
	sch *schema.Schema,
	opts schema.Options,
) (repr.Dataset, *schema.Report, error) {
	f, err := os.Open(in.Path)
	if err != nil {
		return repr.Dataset{}, nil, fmt.Errorf("Failed to open input\n%w", err)
	}
	defer f.Close()
	return NormalizeReader(in.Kind, bufio.NewReader(f), in.Path, in.Sheet, enc, sch, opts)
}

func NormalizeReader(
	kind Kind,
	input io.Reader,
	name, sheet string,
	enc source.Encoding,
	sch *schema.Schema,
	opts schema.Options,
) (repr.Dataset, *schema.Report, error) {
	if kind == KindCanonical {
		ds, err := source.ReadCanonical(input, name)
		if err != nil {
			return repr.Dataset{}, nil, err
		}
		return metrics.DeriveAll(ds), nil, nil
	}

	var tbl *source.Table
	var err error
	switch kind {
	case KindLegacyCSV:
		tbl, err = source.ReadLegacyCSV(input, name, enc)
	case KindLegacyXLSX:
		tbl, err = source.ReadLegacyXLSX(input, name, sheet)
	case KindCurrent:
		tbl, err = source.ReadCurrent(input, name, enc)
	case KindSonar:
		tbl, err = source.ReadSonar(input, name)
	default:
		err = fmt.Errorf("Unknown input kind %q", kind)
	}
	if err != nil {
		return repr.Dataset{}, nil, err
	}

	if sch == nil {
		sch = schema.ForEra(kind.Era())
	}
	ds, rep, err := schema.New(sch, opts).Normalize(tbl)
	if err != nil {
		return repr.Dataset{}, &rep, err
	}
	return metrics.DeriveAll(ds), &rep, nil
}
