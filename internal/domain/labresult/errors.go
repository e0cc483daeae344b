package labresult

import "errors"

var (
	ErrNoValue          = errors.New("no numeric value found after test name")
	ErrUnparsableValue  = errors.New("numeric token could not be parsed")
	ErrImplausibleValue = errors.New("value rejected by sanity check")
	ErrNoReferenceRow   = errors.New("no reference row for test")
)
