package model

import "fmt"

// MissingInputError is returned when a required input file is absent.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing input %s: %v", e.Path, e.Err)
	}
	return "missing input " + e.Path
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// FormatError locates a malformed record. Row is 1-based, Field is the
// 0-based column or -1 if the whole row is affected.
type FormatError struct {
	File  string
	Row   int
	Field int
	Err   error
}

func (e *FormatError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Row, e.Err)
	}
	return fmt.Sprintf("%s:%d field %d: %v", e.File, e.Row, e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ConsistencyError signals two datasets that cannot be combined.
type ConsistencyError struct {
	What string
	Want any
	Got  any
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent %s: want %v, got %v", e.What, e.Want, e.Got)
}
