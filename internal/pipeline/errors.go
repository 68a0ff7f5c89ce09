package pipeline

import "fmt"

// ParseError indicates an input could not be read as its expected format.
// It aborts the run.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates the run cannot produce a deck: no input source
// was supplied, or no records survived filtering.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ExportError indicates deck assembly or serialization failed.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export deck: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
