package schema

import (
	"errors"
	"fmt"
	"strings"

	"jobclean/repr"
)

var ErrSchemaMismatch = errors.New("Raw file schema mismatch")

// Required columns that neither the header nor its aliases could supply.  Missing is sorted.

type MismatchError struct {
	Era     repr.Era
	Source  string
	Missing []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf(
		"%s: %s input %s, missing columns: %s",
		ErrSchemaMismatch.Error(), e.Era, e.Source, strings.Join(e.Missing, ", "))
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
