package reference

import (
	"errors"
	"fmt"
)

var (
	ErrNoRows           = errors.New("reference table has no rows")
	ErrMissingColumn    = errors.New("reference table is missing a required column")
	ErrEmptyTestName    = errors.New("testname is empty")
	ErrInvalidSex       = errors.New("sextype must be Male, Female or Both")
	ErrInvalidAgeBounds = errors.New("fromage must not exceed toage")
	ErrInvalidNumber    = errors.New("invalid numeric value")
)

// DataLoadError means no reference table could be built. Analyses cannot
// proceed without one, so callers must surface it instead of reporting an
// empty result.
type DataLoadError struct {
	Source string
	// Line is the 1-based line of the offending record, 0 when unknown.
	Line int
	Err  error
}

func (e *DataLoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loading reference table from %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("loading reference table from %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
